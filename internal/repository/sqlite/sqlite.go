// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// modernc.org/sqlite is a pure Go translation of the SQLite C code — no
// CGo, no C compiler, works everywhere Go works. The database is a single
// file inside the deployment (or ":memory:" in tests).
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: the sqlite package's init() registers itself with
	// database/sql as the driver named "sqlite".
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The typed stores returned by Users,
// Buckets, and Items share the pool and implement the repository
// interfaces; they are separate types because UserRepository and
// ItemRepository both declare GetByID with different return types.
type DB struct {
	conn *sql.DB
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserStore { return &UserStore{db: db} }

// Buckets returns the contribution bucket repository backed by this
// database.
func (db *DB) Buckets() *BucketStore { return &BucketStore{db: db} }

// Items returns the item repository backed by this database.
func (db *DB) Items() *ItemStore { return &ItemStore{db: db} }

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/showcase.db" → file-based, persistent
//   - ":memory:"         → in-memory, lost on close (used by tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" opens its own empty database,
	// so the schema would only exist on the connection that ran the
	// migrations. A single connection keeps all queries on the same one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Force an immediate connection so a bad path or permissions issue
	// surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// needed for a web server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. We rely on them for the
	// item → upvotes/comments cascades.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			google_id     TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			streak_points INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// bucket_start is stored as unix seconds so bucket keys compare by
	// exact equality regardless of time zone formatting.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS contribution_buckets (
			user_id      TEXT NOT NULL REFERENCES users(id),
			kind         TEXT NOT NULL CHECK (kind IN ('project', 'idea')),
			bucket_start INTEGER NOT NULL,
			count        INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, kind, bucket_start)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating contribution_buckets table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id         TEXT PRIMARY KEY,
			type       TEXT NOT NULL CHECK (type IN ('project', 'idea')),
			title      TEXT NOT NULL,
			url        TEXT NOT NULL DEFAULT '',
			keywords   TEXT NOT NULL DEFAULT '[]',
			created_by TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_items_created_by ON items(created_by);
		CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating items table: %w", err)
	}

	// The (item_id, user_id) primary key is the "one upvote per user per
	// item" invariant; ON DELETE CASCADE removes upvotes with their item.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS upvotes (
			item_id    TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (item_id, user_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating upvotes table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			item_id    TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			author_id  TEXT NOT NULL REFERENCES users(id),
			text       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_comments_item_id ON comments(item_id);
		CREATE INDEX IF NOT EXISTS idx_comments_created_at ON comments(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	return nil
}
