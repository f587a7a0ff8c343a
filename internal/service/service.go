package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"catalog-analytics-api/internal/analytics"
	"catalog-analytics-api/internal/database"
	"catalog-analytics-api/internal/events"
	"catalog-analytics-api/internal/features"
	"catalog-analytics-api/internal/models"
	"catalog-analytics-api/internal/slug"
	"catalog-analytics-api/internal/validation"
	"catalog-analytics-api/internal/visits"
)

// ErrDataUnavailable is returned when the store cannot answer a report
// query. It is not retried here; retrying is the storage layer's concern.
var ErrDataUnavailable = fmt.Errorf("service: analytics data unavailable")

// ErrNotFound is returned for missing catalog or site content records.
var ErrNotFound = database.ErrNotFound

// Fixed windows of the dashboard. The recent listing and status counts use
// a trailing week while the widget totals use a trailing quarter,
// independently of the window the caller requests for the line chart.
const (
	widgetWindowDays = 90
	recentWindowDays = 7
	recentOfferLimit = 100
)

// Service provides business logic for the catalog analytics API.
type Service struct {
	db       *database.DB
	events   *events.Manager
	recorder *visits.Recorder
	flags    *features.Manager
}

// NewService creates a new service instance. flags may be nil, in which case
// every feature is treated as enabled.
func NewService(db *database.DB, mgr *events.Manager, recorder *visits.Recorder, flags *features.Manager) *Service {
	return &Service{db: db, events: mgr, recorder: recorder, flags: flags}
}

// BuildReport assembles the dashboard payload: the bucketed offer series
// over the requested window, the category breakdown over the same window,
// the fixed 90-day widget totals, the trailing-7-day recent offers and
// status counts. Every read is a fresh snapshot; the fields may observe the
// store at slightly different instants.
func (s *Service) BuildReport(ctx context.Context, windowDays int, g analytics.Granularity, now time.Time) (models.Report, error) {
	if windowDays <= 0 || windowDays > 365 {
		return models.Report{}, fmt.Errorf("%w: days must be between 1 and 365, got %d",
			analytics.ErrInvalidRange, windowDays)
	}

	now = now.UTC()
	windowStart := now.AddDate(0, 0, -(windowDays - 1))

	// Query from the start bucket's boundary so events in a partial first
	// week or month are counted into their bucket.
	offers, err := s.db.QueryOffers(ctx, analytics.Truncate(windowStart, g), now.AddDate(0, 0, 1))
	if err != nil {
		return models.Report{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	timestamps := make([]time.Time, len(offers))
	for i, o := range offers {
		timestamps[i] = o.CreatedAt
	}
	line, err := analytics.BucketedCounts(timestamps, windowStart, now, g)
	if err != nil {
		return models.Report{}, err
	}

	categories, err := s.db.ListCategories(ctx)
	if err != nil {
		return models.Report{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.Key] = c.Name
	}
	pie := analytics.BreakdownBy(offers, func(o models.OfferEvent) string {
		return names[o.CategoryKey]
	})

	var widgets models.ReportWidgets
	widgetStart := now.AddDate(0, 0, -widgetWindowDays)
	if widgets.Offers90, err = s.db.CountOffersSince(ctx, widgetStart); err != nil {
		return models.Report{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if widgets.Contacts90, err = s.db.CountContactsSince(ctx, widgetStart); err != nil {
		return models.Report{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if widgets.Visits90, err = s.db.CountVisitsSince(ctx, widgetStart); err != nil {
		return models.Report{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	recentStart := now.AddDate(0, 0, -recentWindowDays)
	recent, err := s.db.RecentOffers(ctx, recentStart, recentOfferLimit)
	if err != nil {
		return models.Report{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	statusCounts, err := s.db.StatusCountsSince(ctx, recentStart)
	if err != nil {
		return models.Report{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	all := 0
	for _, c := range statusCounts {
		all += c
	}
	statusCounts["all"] = all

	return models.Report{
		Line:         models.ChartSeries{Labels: line.Labels(), Values: line.Values()},
		Pie:          models.ChartSeries{Labels: pie.Labels(), Values: pie.Values()},
		Widgets:      widgets,
		RecentOffers: recent,
		StatusCounts: statusCounts,
	}, nil
}

// RecordVisit records a visit for the session and tab. It never fails:
// internal errors are swallowed and reported as not-recorded.
func (s *Service) RecordVisit(ctx context.Context, sessionID, tabID string, now time.Time) bool {
	if s.flags != nil && !s.flags.IsEnabled(features.FeatureVisitTracking) {
		return false
	}
	return s.recorder.Record(ctx, sessionID, tabID, now)
}

// VisitDebug returns today's recorded visit for the session, if any.
func (s *Service) VisitDebug(ctx context.Context, sessionID string, now time.Time) (models.SiteVisit, error) {
	return s.db.VisitForSession(ctx, now.UTC().Format("2006-01-02"), sessionID)
}

// SubmitOffer validates and stores a product offer, then publishes the
// offer-created event for the notification subscribers.
func (s *Service) SubmitOffer(ctx context.Context, req models.SubmitOfferRequest, now time.Time) (models.OfferEvent, error) {
	if err := validation.ValidateOfferRequest(req); err != nil {
		return models.OfferEvent{}, err
	}

	productName, categoryKey, err := s.db.GetProductRef(ctx, req.ProductID)
	if errors.Is(err, database.ErrNotFound) {
		return models.OfferEvent{}, &validation.ValidationError{
			Field: "product_id", Message: "unknown product",
		}
	}
	if err != nil {
		return models.OfferEvent{}, fmt.Errorf("failed to resolve product: %w", err)
	}

	offer := models.OfferEvent{
		ID:          uuid.New().String(),
		ProductID:   req.ProductID,
		CategoryKey: categoryKey,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Email:       req.Email,
		City:        req.City,
		Quantity:    req.Quantity,
		OfferText:   req.OfferText,
		Status:      models.StatusPending,
		CreatedAt:   now.UTC(),
	}

	if err := s.db.InsertOffer(ctx, offer); err != nil {
		return models.OfferEvent{}, err
	}

	s.events.PublishOfferCreated(ctx, offer, productName)
	return offer, nil
}

// SubmitContactMessage validates and stores a contact message, then
// publishes the contact-created event.
func (s *Service) SubmitContactMessage(ctx context.Context, req models.SubmitContactRequest, now time.Time) (models.ContactMessage, error) {
	if err := validation.ValidateContactRequest(req); err != nil {
		return models.ContactMessage{}, err
	}

	msg := models.ContactMessage{
		ID:        uuid.New().String(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Message:   req.Message,
		CreatedAt: now.UTC(),
	}

	if err := s.db.InsertContactMessage(ctx, msg); err != nil {
		return models.ContactMessage{}, err
	}

	s.events.PublishContactCreated(ctx, msg)
	return msg, nil
}

// CreateProduct creates a catalog product. When no id is supplied one is
// derived from the name, retrying with numeric suffixes until free.
func (s *Service) CreateProduct(ctx context.Context, req models.CreateProductRequest) (models.Product, error) {
	if err := validation.ValidateProductRequest(req); err != nil {
		return models.Product{}, err
	}

	if _, err := s.db.GetCategory(ctx, req.CategoryKey); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Product{}, &validation.ValidationError{
				Field: "category", Message: "unknown category",
			}
		}
		return models.Product{}, fmt.Errorf("failed to resolve category: %w", err)
	}

	id := req.ID
	if id == "" {
		var err error
		id, err = slug.Unique(slug.Make(req.Name), s.db.ProductExists)
		if err != nil {
			return models.Product{}, err
		}
	} else {
		exists, err := s.db.ProductExists(id)
		if err != nil {
			return models.Product{}, err
		}
		if exists {
			return models.Product{}, &validation.ValidationError{
				Field: "id", Message: "already taken",
			}
		}
	}

	product := models.Product{
		ID:          id,
		Name:        req.Name,
		CategoryKey: req.CategoryKey,
		Description: req.Description,
		Price:       req.Price,
	}
	if err := s.db.InsertProduct(product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.db.ListCategories(ctx)
}

// GetCategory returns one category by key.
func (s *Service) GetCategory(ctx context.Context, key string) (models.Category, error) {
	return s.db.GetCategory(ctx, key)
}

// ListProducts returns the product list serialization.
func (s *Service) ListProducts(ctx context.Context, categoryKey, search string) ([]models.ProductListItem, error) {
	return s.db.ListProducts(ctx, categoryKey, search)
}

// GetProduct returns the product detail serialization.
func (s *Service) GetProduct(ctx context.Context, id string) (models.ProductDetail, error) {
	return s.db.GetProductDetail(ctx, id)
}

// ActiveAboutPage returns the single active About page.
func (s *Service) ActiveAboutPage(ctx context.Context) (models.AboutPage, error) {
	return s.db.GetActiveAboutPage(ctx)
}

// ActiveContactPage returns the single active Contact page.
func (s *Service) ActiveContactPage(ctx context.Context) (models.ContactPage, error) {
	return s.db.GetActiveContactPage(ctx)
}

// ActiveFooterSettings returns the single active footer settings row.
func (s *Service) ActiveFooterSettings(ctx context.Context) (models.FooterSettings, error) {
	return s.db.GetActiveFooterSettings(ctx)
}

// ActivateAboutPage makes one About page active and deactivates the rest.
func (s *Service) ActivateAboutPage(ctx context.Context, id int64) error {
	return s.db.SetActiveAboutPage(ctx, id)
}

// ActivateContactPage makes one Contact page active and deactivates the rest.
func (s *Service) ActivateContactPage(ctx context.Context, id int64) error {
	return s.db.SetActiveContactPage(ctx, id)
}

// ActivateFooterSettings makes one footer row active and deactivates the rest.
func (s *Service) ActivateFooterSettings(ctx context.Context, id int64) error {
	return s.db.SetActiveFooterSettings(ctx, id)
}
