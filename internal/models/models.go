package models

import "time"

// Offer statuses an operator can set on a product offer.
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// OfferStatuses lists the valid statuses in display order.
var OfferStatuses = []string{StatusPending, StatusReviewed, StatusAccepted, StatusRejected}

// Category represents a product category.
type Category struct {
	Key         string `json:"key"` // slug identifier used by the frontend, e.g. "earphone"
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image,omitempty"`
}

// Product represents a catalog product. ID is a slug, e.g. "peak-black".
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	CategoryKey   string   `json:"category"`
	Description   string   `json:"description"`
	Price         *float64 `json:"price,omitempty"` // optional, frontend may hide price
	OriginalPrice *float64 `json:"original_price,omitempty"`
	Discount      int      `json:"discount"`
}

// ProductImage is one image attached to a product.
type ProductImage struct {
	ID     int64  `json:"id"`
	URL    string `json:"image"`
	IsMain bool   `json:"is_main"`
	Alt    string `json:"alt"`
	Order  int    `json:"order"`
}

// ProductFeature is a single marketing bullet point.
type ProductFeature struct {
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// ProductSpec is a label/value technical specification row.
type ProductSpec struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
	Order int    `json:"order"`
}

// ProductHighlight is a number/caption pair, e.g. "40h" / "battery life".
type ProductHighlight struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
	Text   string `json:"text"`
	Order  int    `json:"order"`
}

// ProductListItem is the list serialization: category key and main image only.
type ProductListItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryKey string `json:"category"`
	MainImage   string `json:"main_image,omitempty"`
}

// ProductDetail is the detail serialization with all nested collections.
type ProductDetail struct {
	Product
	Images     []ProductImage     `json:"images"`
	Features   []ProductFeature   `json:"features"`
	Specs      []ProductSpec      `json:"specs"`
	Highlights []ProductHighlight `json:"highlights"`
}

// OfferEvent represents one customer product-offer submission.
// CreatedAt is set at insert and never changes.
type OfferEvent struct {
	ID          string    `json:"id"` // uuid
	ProductID   string    `json:"product_id"`
	CategoryKey string    `json:"category"` // derived from the product at submit time
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone_number"`
	Email       string    `json:"email,omitempty"`
	City        string    `json:"city"`
	Quantity    int       `json:"quantity"`
	OfferText   string    `json:"offer_text,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContactMessage represents one contact-form submission.
type ContactMessage struct {
	ID        string    `json:"id"` // uuid
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// SiteVisit is one recorded visit: at most one per (calendar day, session).
type SiteVisit struct {
	ID        int64     `json:"id"`
	VisitDate string    `json:"date"` // "2006-01-02"
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AboutPage is the editable About page content. At most one row is active.
type AboutPage struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Story     string    `json:"story"`
	Mission   string    `json:"mission"`
	Vision    string    `json:"vision"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactPage is the editable Contact page content. At most one row is active.
type ContactPage struct {
	ID           int64     `json:"id"`
	HeroTitle    string    `json:"hero_title"`
	HeroSubtitle string    `json:"hero_subtitle"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	IsActive     bool      `json:"is_active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FooterSettings is the editable footer content. At most one row is active.
type FooterSettings struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	BottomText  string    `json:"bottom_text"`
	IsActive    bool      `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SubmitOfferRequest is the request body for POST /offers.
type SubmitOfferRequest struct {
	ProductID string `json:"product_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone_number"`
	Email     string `json:"email"`
	City      string `json:"city"`
	Quantity  int    `json:"quantity"`
	OfferText string `json:"offer_text"`
}

// SubmitContactRequest is the request body for POST /contact-messages.
type SubmitContactRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// CreateProductRequest is the request body for POST /products. The product
// ID is generated from the name when omitted.
type CreateProductRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	CategoryKey string   `json:"category"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

// TrackVisitRequest is the request body for POST /visit/track.
type TrackVisitRequest struct {
	TabID string `json:"tab_id"`
}

// TrackVisitResponse reports whether a new visit row was written.
type TrackVisitResponse struct {
	Recorded bool `json:"recorded"`
}

// ChartSeries is one labelled series for the dashboard charts.
type ChartSeries struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// ReportWidgets holds the fixed rolling-90-day totals.
type ReportWidgets struct {
	Offers90   int `json:"offers_90"`
	Contacts90 int `json:"contacts_90"`
	Visits90   int `json:"visits_90"`
}

// RecentOffer is one row of the dashboard's recent-offers listing.
type RecentOffer struct {
	ID        string    `json:"id"`
	Customer  string    `json:"customer"`
	Product   string    `json:"product"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is the assembled dashboard payload.
type Report struct {
	Line         ChartSeries    `json:"line"`
	Pie          ChartSeries    `json:"pie"`
	Widgets      ReportWidgets  `json:"widgets"`
	RecentOffers []RecentOffer  `json:"recent_offers"`
	StatusCounts map[string]int `json:"status_counts"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
