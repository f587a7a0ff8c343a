package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"catalog-analytics-api/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = fmt.Errorf("database: record not found")

// DB wraps the database connection and provides methods for data access.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema.
func NewDB(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist.
func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category_key TEXT NOT NULL REFERENCES categories(key),
			description TEXT NOT NULL DEFAULT '',
			price REAL,
			original_price REAL,
			discount INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS product_images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			is_main INTEGER NOT NULL DEFAULT 0,
			alt TEXT NOT NULL DEFAULT '',
			ord INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS product_features (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			ord INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS product_specs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			label TEXT NOT NULL,
			value TEXT NOT NULL,
			ord INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS product_highlights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			number TEXT NOT NULL,
			text TEXT NOT NULL,
			ord INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS product_offers (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products(id),
			category_key TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL,
			offer_text TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'reviewed', 'accepted', 'rejected')),
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_created_at ON product_offers(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_status ON product_offers(status)`,
		`CREATE TABLE IF NOT EXISTS contact_messages (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contact_messages(created_at)`,
		`CREATE TABLE IF NOT EXISTS site_visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visit_date TEXT NOT NULL,
			session_id TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(visit_date, session_id)
		)`,
		`CREATE TABLE IF NOT EXISTS about_pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			subtitle TEXT NOT NULL DEFAULT '',
			story TEXT NOT NULL DEFAULT '',
			mission TEXT NOT NULL DEFAULT '',
			vision TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_about_active ON about_pages(is_active) WHERE is_active = 1`,
		`CREATE TABLE IF NOT EXISTS contact_pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hero_title TEXT NOT NULL,
			hero_subtitle TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_contact_active ON contact_pages(is_active) WHERE is_active = 1`,
		`CREATE TABLE IF NOT EXISTS footer_settings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			description TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			bottom_text TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_footer_active ON footer_settings(is_active) WHERE is_active = 1`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

// UpsertCategory creates or updates a category.
func (db *DB) UpsertCategory(c models.Category) error {
	query := `INSERT INTO categories (key, name, description, image_url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			image_url = excluded.image_url`

	if _, err := db.conn.Exec(query, c.Key, c.Name, c.Description, c.ImageURL); err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (db *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT key, name, description, image_url FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Key, &c.Name, &c.Description, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns one category by key.
func (db *DB) GetCategory(ctx context.Context, key string) (models.Category, error) {
	var c models.Category
	err := db.conn.QueryRowContext(ctx,
		`SELECT key, name, description, image_url FROM categories WHERE key = ?`, key).
		Scan(&c.Key, &c.Name, &c.Description, &c.ImageURL)
	if err == sql.ErrNoRows {
		return models.Category{}, ErrNotFound
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// InsertProduct creates a product. Fails if the id is already taken.
func (db *DB) InsertProduct(p models.Product) error {
	query := `INSERT INTO products (id, name, category_key, description, price, original_price, discount)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := db.conn.Exec(query, p.ID, p.Name, p.CategoryKey, p.Description,
		p.Price, p.OriginalPrice, p.Discount); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// ProductExists reports whether a product with the given id exists.
func (db *DB) ProductExists(id string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM products WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check product id: %w", err)
	}
	return true, nil
}

// GetProductRef returns the name and category key of a product, for deriving
// offer event fields at submit time.
func (db *DB) GetProductRef(ctx context.Context, id string) (name, categoryKey string, err error) {
	err = db.conn.QueryRowContext(ctx,
		`SELECT name, category_key FROM products WHERE id = ?`, id).Scan(&name, &categoryKey)
	if err == sql.ErrNoRows {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to get product: %w", err)
	}
	return name, categoryKey, nil
}

// ListProducts returns the list serialization of products, optionally
// filtered by category key and a search term over id, name and description.
func (db *DB) ListProducts(ctx context.Context, categoryKey, search string) ([]models.ProductListItem, error) {
	query := `SELECT p.id, p.name, p.description, p.category_key,
		COALESCE((SELECT url FROM product_images i WHERE i.product_id = p.id
			ORDER BY i.is_main DESC, i.ord, i.id LIMIT 1), '')
		FROM products p`

	var conds []string
	var args []interface{}
	if categoryKey != "" {
		conds = append(conds, "p.category_key = ?")
		args = append(args, categoryKey)
	}
	if search != "" {
		conds = append(conds, "(p.id LIKE ? OR p.name LIKE ? OR p.description LIKE ?)")
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY p.name"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var items []models.ProductListItem
	for rows.Next() {
		var it models.ProductListItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.CategoryKey, &it.MainImage); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return items, nil
}

// GetProductDetail returns one product with all nested collections.
func (db *DB) GetProductDetail(ctx context.Context, id string) (models.ProductDetail, error) {
	var d models.ProductDetail
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, category_key, description, price, original_price, discount
		FROM products WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.CategoryKey, &d.Description, &d.Price, &d.OriginalPrice, &d.Discount)
	if err == sql.ErrNoRows {
		return models.ProductDetail{}, ErrNotFound
	}
	if err != nil {
		return models.ProductDetail{}, fmt.Errorf("failed to get product: %w", err)
	}

	d.Images = []models.ProductImage{}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, url, is_main, alt, ord FROM product_images WHERE product_id = ? ORDER BY ord, id`, id)
	if err != nil {
		return models.ProductDetail{}, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var img models.ProductImage
		if err := rows.Scan(&img.ID, &img.URL, &img.IsMain, &img.Alt, &img.Order); err != nil {
			return models.ProductDetail{}, fmt.Errorf("failed to scan image: %w", err)
		}
		d.Images = append(d.Images, img)
	}
	if err := rows.Err(); err != nil {
		return models.ProductDetail{}, fmt.Errorf("error iterating images: %w", err)
	}

	d.Features = []models.ProductFeature{}
	frows, err := db.conn.QueryContext(ctx,
		`SELECT id, text, ord FROM product_features WHERE product_id = ? ORDER BY ord, id`, id)
	if err != nil {
		return models.ProductDetail{}, fmt.Errorf("failed to query features: %w", err)
	}
	defer frows.Close()
	for frows.Next() {
		var f models.ProductFeature
		if err := frows.Scan(&f.ID, &f.Text, &f.Order); err != nil {
			return models.ProductDetail{}, fmt.Errorf("failed to scan feature: %w", err)
		}
		d.Features = append(d.Features, f)
	}
	if err := frows.Err(); err != nil {
		return models.ProductDetail{}, fmt.Errorf("error iterating features: %w", err)
	}

	d.Specs = []models.ProductSpec{}
	srows, err := db.conn.QueryContext(ctx,
		`SELECT id, label, value, ord FROM product_specs WHERE product_id = ? ORDER BY ord, id`, id)
	if err != nil {
		return models.ProductDetail{}, fmt.Errorf("failed to query specs: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var s models.ProductSpec
		if err := srows.Scan(&s.ID, &s.Label, &s.Value, &s.Order); err != nil {
			return models.ProductDetail{}, fmt.Errorf("failed to scan spec: %w", err)
		}
		d.Specs = append(d.Specs, s)
	}
	if err := srows.Err(); err != nil {
		return models.ProductDetail{}, fmt.Errorf("error iterating specs: %w", err)
	}

	d.Highlights = []models.ProductHighlight{}
	hrows, err := db.conn.QueryContext(ctx,
		`SELECT id, number, text, ord FROM product_highlights WHERE product_id = ? ORDER BY ord, id`, id)
	if err != nil {
		return models.ProductDetail{}, fmt.Errorf("failed to query highlights: %w", err)
	}
	defer hrows.Close()
	for hrows.Next() {
		var h models.ProductHighlight
		if err := hrows.Scan(&h.ID, &h.Number, &h.Text, &h.Order); err != nil {
			return models.ProductDetail{}, fmt.Errorf("failed to scan highlight: %w", err)
		}
		d.Highlights = append(d.Highlights, h)
	}
	if err := hrows.Err(); err != nil {
		return models.ProductDetail{}, fmt.Errorf("error iterating highlights: %w", err)
	}

	return d, nil
}
