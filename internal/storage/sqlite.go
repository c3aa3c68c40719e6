package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meur/mintforge/internal/models"
)

// ErrNotFound is returned by updates that match no row
var ErrNotFound = errors.New("record not found")

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS mints (
			id TEXT PRIMARY KEY,
			network TEXT NOT NULL,
			sender TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			attributes TEXT,
			image_cid TEXT,
			image_url TEXT,
			tx_bytes TEXT,
			digest TEXT,
			object_id TEXT,
			status TEXT NOT NULL,
			error TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mints_sender ON mints(sender, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_mints_digest ON mints(digest)`,
		`CREATE TABLE IF NOT EXISTS items (
			object_id TEXT PRIMARY KEY,
			collection_id TEXT NOT NULL,
			owner TEXT,
			name TEXT NOT NULL,
			description TEXT,
			image_url TEXT,
			creator TEXT,
			attributes TEXT,
			digest TEXT,
			minted_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_collection ON items(collection_id, minted_at)`,
		`CREATE TABLE IF NOT EXISTS properties (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// --- Mints ---

const mintColumns = `id, network, sender, name, description, attributes, image_cid, image_url,
	tx_bytes, digest, object_id, status, error, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMint(row scanner) (*models.Mint, error) {
	var m models.Mint
	var attrs string
	var imageCID, imageURL, txBytes, digest, objectID, errMsg sql.NullString
	err := row.Scan(&m.ID, &m.Network, &m.Sender, &m.Name, &m.Description, &attrs,
		&imageCID, &imageURL, &txBytes, &digest, &objectID, &m.Status, &errMsg,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(attrs), &m.Attributes)
	m.ImageCID = imageCID.String
	m.ImageURL = imageURL.String
	m.TxBytes = txBytes.String
	m.Digest = digest.String
	m.ObjectID = objectID.String
	m.Error = errMsg.String
	return &m, nil
}

// CreateMint inserts a new mint record
func (s *Store) CreateMint(m *models.Mint) error {
	attrs, _ := json.Marshal(m.Attributes)
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	_, err := s.db.Exec(`
		INSERT INTO mints (`+mintColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Network, m.Sender, m.Name, m.Description, string(attrs),
		m.ImageCID, m.ImageURL, m.TxBytes, m.Digest, m.ObjectID, m.Status, m.Error,
		m.CreatedAt, m.UpdatedAt)
	return err
}

// GetMint returns a mint by ID
func (s *Store) GetMint(id string) (*models.Mint, error) {
	m, err := scanMint(s.db.QueryRow(`SELECT `+mintColumns+` FROM mints WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMint applies the non-nil fields of update
func (s *Store) UpdateMint(id string, update *models.MintUpdate) error {
	// Build dynamic update query
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if update.Status != nil {
		set("status", string(*update.Status))
	}
	if update.ImageCID != nil {
		set("image_cid", *update.ImageCID)
	}
	if update.ImageURL != nil {
		set("image_url", *update.ImageURL)
	}
	if update.TxBytes != nil {
		set("tx_bytes", *update.TxBytes)
	}
	if update.Digest != nil {
		set("digest", *update.Digest)
	}
	if update.ObjectID != nil {
		set("object_id", *update.ObjectID)
	}
	if update.Error != nil {
		set("error", *update.Error)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE mints SET %s WHERE id = ?", strings.Join(sets, ", "))

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: mint %s", ErrNotFound, id)
	}
	return nil
}

// ListMints returns the newest mints, optionally only those of sender
func (s *Store) ListMints(sender string, limit int) ([]models.Mint, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows *sql.Rows
	var err error

	if sender != "" {
		rows, err = s.db.Query(`
			SELECT `+mintColumns+` FROM mints WHERE sender = ?
			ORDER BY created_at DESC LIMIT ?
		`, sender, limit)
	} else {
		rows, err = s.db.Query(`
			SELECT `+mintColumns+` FROM mints ORDER BY created_at DESC LIMIT ?
		`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mints := []models.Mint{}
	for rows.Next() {
		m, err := scanMint(rows)
		if err != nil {
			return nil, err
		}
		mints = append(mints, *m)
	}
	return mints, rows.Err()
}

// --- Items ---

const itemColumns = `object_id, collection_id, owner, name, description, image_url, creator,
	attributes, digest, minted_at`

func scanItem(row scanner) (*models.Item, error) {
	var item models.Item
	var owner, description, imageURL, creator, digest sql.NullString
	var attrs string
	var mintedAt sql.NullTime
	err := row.Scan(&item.ObjectID, &item.CollectionID, &owner, &item.Name, &description,
		&imageURL, &creator, &attrs, &digest, &mintedAt)
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(attrs), &item.Attributes)
	item.Owner = owner.String
	item.Description = description.String
	item.ImageURL = imageURL.String
	item.Creator = creator.String
	item.Digest = digest.String
	if mintedAt.Valid {
		item.MintedAt = mintedAt.Time
	}
	return &item, nil
}

// UpsertItems writes items into the index in one transaction
func (s *Store) UpsertItems(items []models.Item) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		attrs, _ := json.Marshal(item.Attributes)
		_, err := stmt.Exec(item.ObjectID, item.CollectionID, item.Owner, item.Name,
			item.Description, item.ImageURL, item.Creator, string(attrs), item.Digest, item.MintedAt.UTC())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetItems returns the most recently minted items of a collection
func (s *Store) GetItems(collectionID string, limit int) (*models.ItemList, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM items WHERE collection_id = ?`, collectionID).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT `+itemColumns+` FROM items WHERE collection_id = ?
		ORDER BY minted_at DESC, object_id LIMIT ?
	`, collectionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := &models.ItemList{Items: []models.Item{}, TotalCount: total}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, *item)
	}
	return list, rows.Err()
}

// GetItem returns an indexed item by object ID
func (s *Store) GetItem(objectID string) (*models.Item, error) {
	item, err := scanItem(s.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE object_id = ?`, objectID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// --- Properties ---

// ReadProperty returns the stored value of key, or "" when unset
func (s *Store) ReadProperty(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM properties WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// WriteProperty stores value under key
func (s *Store) WriteProperty(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO properties (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	return err
}
