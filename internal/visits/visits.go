// Package visits records site visits with at-most-one semantics per
// (calendar day, session): a TTL cache keyed by day/session/tab as the fast
// path, and the durable UNIQUE(visit_date, session_id) constraint as the
// correctness backstop under concurrent requests.
package visits

import (
	"context"
	"fmt"
	"log"
	"time"

	"catalog-analytics-api/internal/cache"
)

// DedupTTL bounds the fast-path cache. Keys embed the calendar day, so the
// TTL only has to outlive the day they describe.
const DedupTTL = 24 * time.Hour

// Store is the durable side of visit recording.
type Store interface {
	CreateVisitIfAbsent(ctx context.Context, visitDate, sessionID string, now time.Time) (bool, error)
}

// Recorder gates visit writes through the dedup cache and the durable store.
type Recorder struct {
	store Store
	cache cache.Cache
}

// NewRecorder creates a visit recorder.
func NewRecorder(store Store, c cache.Cache) *Recorder {
	return &Recorder{store: store, cache: c}
}

func dedupKey(visitDate, sessionID, tabID string) string {
	return fmt.Sprintf("visit:%s:%s:%s", visitDate, sessionID, tabID)
}

// Record registers a visit for (today, session, tab) and reports whether a
// new durable visit row was written. It never returns an error: visit
// tracking must not fail a page view, so internal failures are logged and
// reported as not-recorded.
//
// The cache check is best-effort. A false negative under a tight race is
// harmless: the redundant durable write is absorbed by the uniqueness
// constraint.
func (r *Recorder) Record(ctx context.Context, sessionID, tabID string, now time.Time) bool {
	visitDate := now.UTC().Format("2006-01-02")
	key := dedupKey(visitDate, sessionID, tabID)

	if _, err := r.cache.Get(ctx, key); err == nil {
		return false
	}

	created, err := r.store.CreateVisitIfAbsent(ctx, visitDate, sessionID, now)
	if err != nil {
		log.Printf("visit record failed (session=%s): %v", sessionID, err)
		return false
	}

	if err := r.cache.Set(ctx, key, []byte("1"), DedupTTL); err != nil {
		log.Printf("visit dedup cache set failed: %v", err)
	}
	return created
}
