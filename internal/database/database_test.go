package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"catalog-analytics-api/internal/models"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	dbPath := "./test_db_" + uuid.New().String() + ".db"
	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func seedCatalog(t *testing.T, db *DB) {
	t.Helper()
	if err := db.UpsertCategory(models.Category{Key: "earphone", Name: "Earphones"}); err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}
	if err := db.InsertProduct(models.Product{
		ID: "peak-black", Name: "Peak Black", CategoryKey: "earphone",
	}); err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
}

func seedOffer(t *testing.T, db *DB, status string, createdAt time.Time) models.OfferEvent {
	t.Helper()
	offer := models.OfferEvent{
		ID:          uuid.New().String(),
		ProductID:   "peak-black",
		CategoryKey: "earphone",
		FirstName:   "Leyla",
		LastName:    "Aliyeva",
		Phone:       "+994501234567",
		City:        "Baku",
		Quantity:    2,
		Status:      status,
		CreatedAt:   createdAt,
	}
	if err := db.InsertOffer(context.Background(), offer); err != nil {
		t.Fatalf("Failed to seed offer: %v", err)
	}
	return offer
}

func TestCreateVisitIfAbsent_UniquePerDayAndSession(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	created, err := db.CreateVisitIfAbsent(context.Background(), "2024-06-01", "sess1", now)
	if err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if !created {
		t.Fatal("Expected first insert to create a row")
	}

	created, err = db.CreateVisitIfAbsent(context.Background(), "2024-06-01", "sess1", now)
	if err != nil {
		t.Fatalf("Duplicate insert errored: %v", err)
	}
	if created {
		t.Fatal("Expected duplicate insert to be rejected")
	}

	// Different day and different session are both fresh rows
	if created, _ = db.CreateVisitIfAbsent(context.Background(), "2024-06-02", "sess1", now); !created {
		t.Error("Expected a row for a new day")
	}
	if created, _ = db.CreateVisitIfAbsent(context.Background(), "2024-06-01", "sess2", now); !created {
		t.Error("Expected a row for a new session")
	}

	count, err := db.CountVisitsSince(context.Background(), now.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("CountVisitsSince failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 visit rows, got %d", count)
	}
}

func TestVisitForSession(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	if _, err := db.CreateVisitIfAbsent(context.Background(), "2024-06-01", "sess1", now); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	visit, err := db.VisitForSession(context.Background(), "2024-06-01", "sess1")
	if err != nil {
		t.Fatalf("VisitForSession failed: %v", err)
	}
	if visit.SessionID != "sess1" || visit.VisitDate != "2024-06-01" {
		t.Errorf("Unexpected visit row: %+v", visit)
	}

	_, err = db.VisitForSession(context.Background(), "2024-06-02", "sess1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStatusCountsSince_AllStatusesPresent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedCatalog(t, db)

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	seedOffer(t, db, models.StatusPending, now.AddDate(0, 0, -1))
	seedOffer(t, db, models.StatusPending, now.AddDate(0, 0, -2))
	seedOffer(t, db, models.StatusAccepted, now.AddDate(0, 0, -3))
	// Outside the window
	seedOffer(t, db, models.StatusRejected, now.AddDate(0, 0, -30))

	counts, err := db.StatusCountsSince(context.Background(), now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("StatusCountsSince failed: %v", err)
	}

	expected := map[string]int{"pending": 2, "reviewed": 0, "accepted": 1, "rejected": 0}
	for status, want := range expected {
		if counts[status] != want {
			t.Errorf("Status %s: expected %d, got %d", status, want, counts[status])
		}
	}
}

func TestRecentOffers_JoinsProductAndLimits(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedCatalog(t, db)

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedOffer(t, db, models.StatusPending, now.Add(-time.Duration(i)*time.Hour))
	}

	offers, err := db.RecentOffers(context.Background(), now.AddDate(0, 0, -7), 3)
	if err != nil {
		t.Fatalf("RecentOffers failed: %v", err)
	}
	if len(offers) != 3 {
		t.Fatalf("Expected 3 offers, got %d", len(offers))
	}
	if offers[0].Product != "Peak Black" {
		t.Errorf("Expected product name join, got %q", offers[0].Product)
	}
	if offers[0].Customer != "Leyla Aliyeva" {
		t.Errorf("Expected combined customer name, got %q", offers[0].Customer)
	}
	for i := 1; i < len(offers); i++ {
		if offers[i].CreatedAt.After(offers[i-1].CreatedAt) {
			t.Errorf("Expected newest-first ordering")
		}
	}
}

func TestQueryOffers_WindowFilter(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedCatalog(t, db)

	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	seedOffer(t, db, models.StatusPending, now.AddDate(0, 0, -1))
	seedOffer(t, db, models.StatusPending, now.AddDate(0, 0, -5))
	seedOffer(t, db, models.StatusPending, now.AddDate(0, 0, -20))

	offers, err := db.QueryOffers(context.Background(), now.AddDate(0, 0, -7), now)
	if err != nil {
		t.Fatalf("QueryOffers failed: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("Expected 2 offers in window, got %d", len(offers))
	}
}

func TestSetActive_DeactivatesSiblings(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	first, err := db.InsertAboutPage(models.AboutPage{Title: "First", IsActive: true})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	second, err := db.InsertAboutPage(models.AboutPage{Title: "Second"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := db.SetActiveAboutPage(context.Background(), second); err != nil {
		t.Fatalf("SetActiveAboutPage failed: %v", err)
	}

	active, err := db.GetActiveAboutPage(context.Background())
	if err != nil {
		t.Fatalf("GetActiveAboutPage failed: %v", err)
	}
	if active.ID != second {
		t.Errorf("Expected page %d active, got %d", second, active.ID)
	}

	// Toggle back
	if err := db.SetActiveAboutPage(context.Background(), first); err != nil {
		t.Fatalf("SetActiveAboutPage failed: %v", err)
	}
	active, err = db.GetActiveAboutPage(context.Background())
	if err != nil {
		t.Fatalf("GetActiveAboutPage failed: %v", err)
	}
	if active.ID != first {
		t.Errorf("Expected page %d active, got %d", first, active.ID)
	}
}

func TestSetActiveContactPage_SingleActiveRow(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	first, err := db.InsertContactPage(models.ContactPage{HeroTitle: "Reach us", IsActive: true})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	second, err := db.InsertContactPage(models.ContactPage{HeroTitle: "Talk to us", Email: "info@shop.az"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := db.SetActiveContactPage(context.Background(), second); err != nil {
		t.Fatalf("SetActiveContactPage failed: %v", err)
	}

	active, err := db.GetActiveContactPage(context.Background())
	if err != nil {
		t.Fatalf("GetActiveContactPage failed: %v", err)
	}
	if active.ID != second || active.Email != "info@shop.az" {
		t.Errorf("Expected page %d active, got %+v", second, active)
	}
	if active.ID == first {
		t.Error("Expected the first page to be deactivated")
	}
}

func TestSetActiveFooterSettings_SingleActiveRow(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	id, err := db.InsertFooterSettings(models.FooterSettings{
		Description: "Quality audio gear",
		BottomText:  "All rights reserved",
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if _, err := db.GetActiveFooterSettings(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before activation, got %v", err)
	}

	if err := db.SetActiveFooterSettings(context.Background(), id); err != nil {
		t.Fatalf("SetActiveFooterSettings failed: %v", err)
	}

	active, err := db.GetActiveFooterSettings(context.Background())
	if err != nil {
		t.Fatalf("GetActiveFooterSettings failed: %v", err)
	}
	if active.ID != id || active.BottomText != "All rights reserved" {
		t.Errorf("Expected footer %d active, got %+v", id, active)
	}
}

func TestSetActive_UnknownID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := db.SetActiveFooterSettings(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
