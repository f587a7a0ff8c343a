package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"catalog-analytics-api/internal/analytics"
	"catalog-analytics-api/internal/models"
	"catalog-analytics-api/internal/service"
	"catalog-analytics-api/internal/validation"
)

// SessionCookie carries the visitor session identifier.
const SessionCookie = "sessionid"

const defaultWindowDays = 30

// Handler provides HTTP handlers for the API.
type Handler struct {
	service     *service.Service
	maxBodySize int64
}

// NewHandlerOptions holds options for creating a handler.
type NewHandlerOptions struct {
	MaxBodySize int64
}

// DefaultHandlerOptions returns default handler options.
func DefaultHandlerOptions() NewHandlerOptions {
	return NewHandlerOptions{
		MaxBodySize: 1 << 20, // 1MB, form submissions are small
	}
}

// NewHandler creates a new handler instance.
func NewHandler(svc *service.Service) *Handler {
	return NewHandlerWithOptions(svc, DefaultHandlerOptions())
}

// NewHandlerWithOptions creates a new handler instance with custom options.
func NewHandlerWithOptions(svc *service.Service, opts NewHandlerOptions) *Handler {
	return &Handler{
		service:     svc,
		maxBodySize: opts.MaxBodySize,
	}
}

// ListCategories handles GET /categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	h.respondJSON(w, http.StatusOK, categories)
}

// GetCategory handles GET /categories/{key}
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	key := validation.SanitizeString(chi.URLParam(r, "key"))
	category, err := h.service.GetCategory(r.Context(), key)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, category)
}

// ListProducts handles GET /products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryKey := validation.SanitizeString(r.URL.Query().Get("category"))
	search := validation.SanitizeString(r.URL.Query().Get("search"))

	products, err := h.service.ListProducts(r.Context(), categoryKey, search)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if products == nil {
		products = []models.ProductListItem{}
	}
	h.respondJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := validation.SanitizeString(chi.URLParam(r, "id"))
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondDecodeError(w, err)
		return
	}
	req.ID = validation.SanitizeString(req.ID)
	req.Name = validation.SanitizeString(req.Name)
	req.CategoryKey = validation.SanitizeString(req.CategoryKey)

	product, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, product)
}

// SubmitOffer handles POST /offers
func (h *Handler) SubmitOffer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.SubmitOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondDecodeError(w, err)
		return
	}
	req.ProductID = validation.SanitizeString(req.ProductID)
	req.FirstName = validation.SanitizeString(req.FirstName)
	req.LastName = validation.SanitizeString(req.LastName)
	req.Phone = validation.SanitizeString(req.Phone)
	req.Email = validation.SanitizeString(req.Email)
	req.City = validation.SanitizeString(req.City)

	offer, err := h.service.SubmitOffer(r.Context(), req, h.now(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, offer)
}

// SubmitContactMessage handles POST /contact-messages
func (h *Handler) SubmitContactMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.SubmitContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondDecodeError(w, err)
		return
	}
	req.FirstName = validation.SanitizeString(req.FirstName)
	req.LastName = validation.SanitizeString(req.LastName)
	req.Email = validation.SanitizeString(req.Email)
	req.Phone = validation.SanitizeString(req.Phone)
	req.Subject = validation.SanitizeString(req.Subject)

	msg, err := h.service.SubmitContactMessage(r.Context(), req, h.now(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, msg)
}

// TrackVisit handles POST /visit/track. It never fails from the caller's
// perspective: bad bodies, missing sessions and internal errors all produce
// a 200 with recorded=false at worst. A session cookie is created here when
// the caller has none yet.
func (h *Handler) TrackVisit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.TrackVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.TabID = ""
	}
	tabID := validation.SanitizeString(req.TabID)
	if tabID == "" {
		tabID = "default"
	}

	sessionID := h.ensureSession(w, r)
	recorded := h.service.RecordVisit(r.Context(), sessionID, tabID, h.now(r))
	h.respondJSON(w, http.StatusOK, models.TrackVisitResponse{Recorded: recorded})
}

// VisitDebug handles GET /visit/debug
func (h *Handler) VisitDebug(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		h.respondJSON(w, http.StatusOK, map[string]interface{}{"session": nil, "visit": nil})
		return
	}

	visit, err := h.service.VisitDebug(r.Context(), cookie.Value, h.now(r))
	if errors.Is(err, service.ErrNotFound) {
		h.respondJSON(w, http.StatusOK, map[string]interface{}{"session": cookie.Value, "visit": nil})
		return
	}
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"session": cookie.Value, "visit": visit})
}

// AnalyticsStats handles GET /dashboard/analytics/stats
func (h *Handler) AnalyticsStats(w http.ResponseWriter, r *http.Request) {
	days := defaultWindowDays
	if param := r.URL.Query().Get("days"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid 'days' parameter, must be an integer")
			return
		}
		days = parsed
	}

	granularity, err := analytics.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.BuildReport(r.Context(), days, granularity, h.now(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

// GetAboutPage handles GET /about
func (h *Handler) GetAboutPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ActiveAboutPage(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, page)
}

// GetContactPage handles GET /contact
func (h *Handler) GetContactPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ActiveContactPage(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, page)
}

// GetFooterSettings handles GET /footer
func (h *Handler) GetFooterSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.ActiveFooterSettings(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, settings)
}

// ActivateAboutPage handles PUT /about/{id}/activate
func (h *Handler) ActivateAboutPage(w http.ResponseWriter, r *http.Request) {
	h.activate(w, r, h.service.ActivateAboutPage)
}

// ActivateContactPage handles PUT /contact/{id}/activate
func (h *Handler) ActivateContactPage(w http.ResponseWriter, r *http.Request) {
	h.activate(w, r, h.service.ActivateContactPage)
}

// ActivateFooterSettings handles PUT /footer/{id}/activate
func (h *Handler) ActivateFooterSettings(w http.ResponseWriter, r *http.Request) {
	h.activate(w, r, h.service.ActivateFooterSettings)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := fn(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"active": true})
}

// ensureSession returns the caller's session id, creating the cookie first
// when absent.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sessionID := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID
}

// now returns the request time, honoring an optional RFC3339 'now' query
// parameter for deterministic testing.
func (h *Handler) now(r *http.Request) time.Time {
	if param := r.URL.Query().Get("now"); param != "" {
		if parsed, err := time.Parse(time.RFC3339, param); err == nil {
			return parsed.UTC()
		}
	}
	return time.Now().UTC()
}

func (h *Handler) respondDecodeError(w http.ResponseWriter, err error) {
	if err == io.EOF {
		h.respondError(w, http.StatusBadRequest, "request body is required")
		return
	}
	h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
}

// respondServiceError maps service errors onto HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var vErr *validation.ValidationError
	switch {
	case errors.As(err, &vErr), errors.Is(err, analytics.ErrInvalidRange):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrDataUnavailable):
		h.respondError(w, http.StatusServiceUnavailable, "data unavailable")
	default:
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// respondJSON sends a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response with the given status code and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
