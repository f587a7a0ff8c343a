package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-analytics-api/internal/models"
)

// InsertAboutPage creates an About page row and returns its id.
func (db *DB) InsertAboutPage(p models.AboutPage) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO about_pages (title, subtitle, story, mission, vision, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Subtitle, p.Story, p.Mission, p.Vision, p.IsActive,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to insert about page: %w", err)
	}
	return res.LastInsertId()
}

// InsertContactPage creates a Contact page row and returns its id.
func (db *DB) InsertContactPage(p models.ContactPage) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO contact_pages (hero_title, hero_subtitle, email, phone, address, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.HeroTitle, p.HeroSubtitle, p.Email, p.Phone, p.Address, p.IsActive,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to insert contact page: %w", err)
	}
	return res.LastInsertId()
}

// InsertFooterSettings creates a footer settings row and returns its id.
func (db *DB) InsertFooterSettings(f models.FooterSettings) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO footer_settings (description, email, phone, bottom_text, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.Description, f.Email, f.Phone, f.BottomText, f.IsActive,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to insert footer settings: %w", err)
	}
	return res.LastInsertId()
}

// GetActiveAboutPage returns the single active About page.
func (db *DB) GetActiveAboutPage(ctx context.Context) (models.AboutPage, error) {
	var p models.AboutPage
	var updatedAt string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, subtitle, story, mission, vision, is_active, updated_at
		FROM about_pages WHERE is_active = 1`).
		Scan(&p.ID, &p.Title, &p.Subtitle, &p.Story, &p.Mission, &p.Vision, &p.IsActive, &updatedAt)
	if err == sql.ErrNoRows {
		return models.AboutPage{}, ErrNotFound
	}
	if err != nil {
		return models.AboutPage{}, fmt.Errorf("failed to get active about page: %w", err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

// GetActiveContactPage returns the single active Contact page.
func (db *DB) GetActiveContactPage(ctx context.Context) (models.ContactPage, error) {
	var p models.ContactPage
	var updatedAt string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, hero_title, hero_subtitle, email, phone, address, is_active, updated_at
		FROM contact_pages WHERE is_active = 1`).
		Scan(&p.ID, &p.HeroTitle, &p.HeroSubtitle, &p.Email, &p.Phone, &p.Address, &p.IsActive, &updatedAt)
	if err == sql.ErrNoRows {
		return models.ContactPage{}, ErrNotFound
	}
	if err != nil {
		return models.ContactPage{}, fmt.Errorf("failed to get active contact page: %w", err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

// GetActiveFooterSettings returns the single active footer settings row.
func (db *DB) GetActiveFooterSettings(ctx context.Context) (models.FooterSettings, error) {
	var f models.FooterSettings
	var updatedAt string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, description, email, phone, bottom_text, is_active, updated_at
		FROM footer_settings WHERE is_active = 1`).
		Scan(&f.ID, &f.Description, &f.Email, &f.Phone, &f.BottomText, &f.IsActive, &updatedAt)
	if err == sql.ErrNoRows {
		return models.FooterSettings{}, ErrNotFound
	}
	if err != nil {
		return models.FooterSettings{}, fmt.Errorf("failed to get active footer settings: %w", err)
	}
	f.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return f, nil
}

// SetActiveAboutPage activates one About page and deactivates all siblings.
func (db *DB) SetActiveAboutPage(ctx context.Context, id int64) error {
	return db.setActive(ctx, "about_pages", id)
}

// SetActiveContactPage activates one Contact page and deactivates all siblings.
func (db *DB) SetActiveContactPage(ctx context.Context, id int64) error {
	return db.setActive(ctx, "contact_pages", id)
}

// SetActiveFooterSettings activates one footer row and deactivates all siblings.
func (db *DB) SetActiveFooterSettings(ctx context.Context, id int64) error {
	return db.setActive(ctx, "footer_settings", id)
}

// setActive runs the "deactivate siblings, then activate" transaction. The
// partial unique index on is_active backstops the invariant that at most one
// row per table is active.
func (db *DB) setActive(ctx context.Context, table string, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET is_active = 0 WHERE id != ?`, table), id); err != nil {
		return fmt.Errorf("failed to deactivate siblings: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET is_active = 1, updated_at = ? WHERE id = ?`, table),
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to activate row: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
