package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"catalog-analytics-api/internal/models"
)

// InsertOffer appends an offer event. CreatedAt is stored as given and is
// never updated afterwards.
func (db *DB) InsertOffer(ctx context.Context, o models.OfferEvent) error {
	query := `INSERT INTO product_offers (
		id, product_id, category_key, first_name, last_name, phone, email,
		city, quantity, offer_text, status, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		o.ID, o.ProductID, o.CategoryKey, o.FirstName, o.LastName, o.Phone,
		o.Email, o.City, o.Quantity, o.OfferText, o.Status,
		o.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert offer: %w", err)
	}
	return nil
}

// InsertContactMessage appends a contact message event.
func (db *DB) InsertContactMessage(ctx context.Context, m models.ContactMessage) error {
	query := `INSERT INTO contact_messages (
		id, first_name, last_name, email, phone, subject, message, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		m.ID, m.FirstName, m.LastName, m.Email, m.Phone, m.Subject, m.Message,
		m.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contact message: %w", err)
	}
	return nil
}

// QueryOffers returns offer events created within [since, until), newest
// last, for bucketing and breakdowns.
func (db *DB) QueryOffers(ctx context.Context, since, until time.Time) ([]models.OfferEvent, error) {
	query := `SELECT id, product_id, category_key, first_name, last_name,
		phone, email, city, quantity, offer_text, status, created_at
		FROM product_offers
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at`

	rows, err := db.conn.QueryContext(ctx, query,
		since.UTC().Format(time.RFC3339), until.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	var offers []models.OfferEvent
	for rows.Next() {
		var o models.OfferEvent
		var createdAt string
		if err := rows.Scan(&o.ID, &o.ProductID, &o.CategoryKey, &o.FirstName,
			&o.LastName, &o.Phone, &o.Email, &o.City, &o.Quantity,
			&o.OfferText, &o.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		o.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}
	return offers, nil
}

// CountOffersSince counts offer events created at or after the given time.
func (db *DB) CountOffersSince(ctx context.Context, since time.Time) (int, error) {
	return db.countSince(ctx, "product_offers", since)
}

// CountContactsSince counts contact messages created at or after the given time.
func (db *DB) CountContactsSince(ctx context.Context, since time.Time) (int, error) {
	return db.countSince(ctx, "contact_messages", since)
}

// CountVisitsSince counts site visits created at or after the given time.
func (db *DB) CountVisitsSince(ctx context.Context, since time.Time) (int, error) {
	return db.countSince(ctx, "site_visits", since)
}

func (db *DB) countSince(ctx context.Context, table string, since time.Time) (int, error) {
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE created_at >= ?`, table)
	err := db.conn.QueryRowContext(ctx, query, since.UTC().Format(time.RFC3339)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

// RecentOffers returns the newest offers created at or after since, joined
// with the product name, capped at limit rows.
func (db *DB) RecentOffers(ctx context.Context, since time.Time, limit int) ([]models.RecentOffer, error) {
	query := `SELECT o.id, o.first_name || ' ' || o.last_name,
		COALESCE(p.name, o.product_id), o.quantity, o.status, o.created_at
		FROM product_offers o
		LEFT JOIN products p ON p.id = o.product_id
		WHERE o.created_at >= ?
		ORDER BY o.created_at DESC
		LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, since.UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent offers: %w", err)
	}
	defer rows.Close()

	offers := []models.RecentOffer{}
	for rows.Next() {
		var o models.RecentOffer
		var createdAt string
		if err := rows.Scan(&o.ID, &o.Customer, &o.Product, &o.Quantity, &o.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent offer: %w", err)
		}
		o.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent offers: %w", err)
	}
	return offers, nil
}

// StatusCountsSince returns offer counts per status since the given time.
// Statuses with no offers are present with a zero count.
func (db *DB) StatusCountsSince(ctx context.Context, since time.Time) (map[string]int, error) {
	counts := make(map[string]int, len(models.OfferStatuses))
	for _, s := range models.OfferStatuses {
		counts[s] = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM product_offers WHERE created_at >= ? GROUP BY status`,
		since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return counts, nil
}

// CreateVisitIfAbsent inserts a visit row for (date, session) and reports
// whether a new row was written. The UNIQUE(visit_date, session_id)
// constraint converts concurrent duplicates into a clean false return.
func (db *DB) CreateVisitIfAbsent(ctx context.Context, visitDate, sessionID string, now time.Time) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO site_visits (visit_date, session_id, created_at) VALUES (?, ?, ?)`,
		visitDate, sessionID, now.UTC().Format(time.RFC3339))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert visit: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// VisitForSession returns the recorded visit for (date, session), if any.
func (db *DB) VisitForSession(ctx context.Context, visitDate, sessionID string) (models.SiteVisit, error) {
	var v models.SiteVisit
	var createdAt string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, visit_date, session_id, created_at FROM site_visits
		WHERE visit_date = ? AND session_id = ?`, visitDate, sessionID).
		Scan(&v.ID, &v.VisitDate, &v.SessionID, &createdAt)
	if err == sql.ErrNoRows {
		return models.SiteVisit{}, ErrNotFound
	}
	if err != nil {
		return models.SiteVisit{}, fmt.Errorf("failed to get visit: %w", err)
	}
	v.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.SiteVisit{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return v, nil
}
