package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"catalog-analytics-api/internal/cache"
	"catalog-analytics-api/internal/database"
	"catalog-analytics-api/internal/events"
	"catalog-analytics-api/internal/models"
	"catalog-analytics-api/internal/service"
	"catalog-analytics-api/internal/visits"
)

func setupTestHandler(t *testing.T) (*Handler, *database.DB, func()) {
	dbPath := "./test_handler_" + uuid.New().String() + ".db"
	db, err := database.NewDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	recorder := visits.NewRecorder(db, cache.NewInMemoryCache())
	svc := service.NewService(db, events.NewManager(false), recorder, nil)
	h := NewHandler(svc)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return h, db, cleanup
}

func setupRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/categories", h.ListCategories)
	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Post("/offers", h.SubmitOffer)
	r.Post("/contact-messages", h.SubmitContactMessage)
	r.Post("/visit/track", h.TrackVisit)
	r.Get("/visit/debug", h.VisitDebug)
	r.Get("/about", h.GetAboutPage)
	r.Put("/about/{id}/activate", h.ActivateAboutPage)
	r.Get("/dashboard/analytics/stats", h.AnalyticsStats)
	return r
}

func seedCatalog(t *testing.T, db *database.DB) {
	t.Helper()
	if err := db.UpsertCategory(models.Category{Key: "earphone", Name: "Earphones"}); err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}
	if err := db.InsertProduct(models.Product{ID: "peak-black", Name: "Peak Black", CategoryKey: "earphone"}); err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
}

func TestTrackVisit_SetsSessionAndDedupes(t *testing.T) {
	h, _, cleanup := setupTestHandler(t)
	defer cleanup()
	r := setupRouter(h)

	body := bytes.NewBufferString(`{"tab_id": "tabX"}`)
	req := httptest.NewRequest("POST", "/visit/track", body)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp models.TrackVisitResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Recorded {
		t.Error("Expected first visit to be recorded")
	}

	cookies := rr.Result().Cookies()
	var session *http.Cookie
	for _, c := range cookies {
		if c.Name == SessionCookie {
			session = c
		}
	}
	if session == nil {
		t.Fatal("Expected a session cookie on first visit")
	}

	// Same session, same day, different tab: not recorded again
	req = httptest.NewRequest("POST", "/visit/track", bytes.NewBufferString(`{"tab_id": "tabY"}`))
	req.AddCookie(session)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Recorded {
		t.Error("Expected second visit to be deduplicated")
	}
}

func TestTrackVisit_BadBodyStillSucceeds(t *testing.T) {
	h, _, cleanup := setupTestHandler(t)
	defer cleanup()
	r := setupRouter(h)

	req := httptest.NewRequest("POST", "/visit/track", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Visit tracking must never fail: expected 200, got %d", rr.Code)
	}
}

func TestSubmitOffer_Success(t *testing.T) {
	h, db, cleanup := setupTestHandler(t)
	defer cleanup()
	seedCatalog(t, db)
	r := setupRouter(h)

	payload, _ := json.Marshal(models.SubmitOfferRequest{
		ProductID: "peak-black",
		FirstName: "Leyla",
		LastName:  "Aliyeva",
		Phone:     "+994501234567",
		City:      "Baku",
		Quantity:  2,
	})
	req := httptest.NewRequest("POST", "/offers", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var offer models.OfferEvent
	if err := json.NewDecoder(rr.Body).Decode(&offer); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if offer.Status != models.StatusPending {
		t.Errorf("Expected status pending, got %s", offer.Status)
	}
	if offer.CategoryKey != "earphone" {
		t.Errorf("Expected derived category earphone, got %s", offer.CategoryKey)
	}
}

func TestSubmitOffer_ValidationError(t *testing.T) {
	h, db, cleanup := setupTestHandler(t)
	defer cleanup()
	seedCatalog(t, db)
	r := setupRouter(h)

	payload, _ := json.Marshal(models.SubmitOfferRequest{
		ProductID: "peak-black",
		FirstName: "Leyla",
		Phone:     "+994501234567",
		Quantity:  2,
	})
	req := httptest.NewRequest("POST", "/offers", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
}

func TestAnalyticsStats_DefaultWindow(t *testing.T) {
	h, db, cleanup := setupTestHandler(t)
	defer cleanup()
	seedCatalog(t, db)
	r := setupRouter(h)

	req := httptest.NewRequest("GET", "/dashboard/analytics/stats?now=2024-06-10T12:00:00Z", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var report models.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if len(report.Line.Labels) != 30 {
		t.Errorf("Expected 30 day buckets for the default window, got %d", len(report.Line.Labels))
	}
	if report.StatusCounts["all"] != 0 {
		t.Errorf("Expected zero offers, got all=%d", report.StatusCounts["all"])
	}
}

func TestAnalyticsStats_BadParams(t *testing.T) {
	h, _, cleanup := setupTestHandler(t)
	defer cleanup()
	r := setupRouter(h)

	for _, url := range []string{
		"/dashboard/analytics/stats?days=0",
		"/dashboard/analytics/stats?days=abc",
		"/dashboard/analytics/stats?granularity=hour",
	} {
		req := httptest.NewRequest("GET", url, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", url, rr.Code)
		}
	}
}

func TestGetAboutPage_NotFoundWhenNoneActive(t *testing.T) {
	h, _, cleanup := setupTestHandler(t)
	defer cleanup()
	r := setupRouter(h)

	req := httptest.NewRequest("GET", "/about", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rr.Code)
	}
}

func TestActivateAboutPage(t *testing.T) {
	h, db, cleanup := setupTestHandler(t)
	defer cleanup()
	r := setupRouter(h)

	id, err := db.InsertAboutPage(models.AboutPage{Title: "Our Story"})
	if err != nil {
		t.Fatalf("Failed to insert about page: %v", err)
	}

	req := httptest.NewRequest("PUT", "/about/1/activate", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest("GET", "/about", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var page models.AboutPage
	if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}
	if page.ID != id || !page.IsActive {
		t.Errorf("Expected page %d active, got %+v", id, page)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	h, _, cleanup := setupTestHandler(t)
	defer cleanup()
	r := setupRouter(h)

	req := httptest.NewRequest("GET", "/products/no-such-product", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rr.Code)
	}
}
