package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/crawlctl/internal/model"
)

// FileName is the name of the history database in its directory.
const FileName = "crawlctl.db"

// HistoryDB stores watched crawls, their results and fetched result
// documents in SQLite.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging, so a history listing can read
	// while a batch is writing.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s: %w", dbPath, ErrNotFound)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	-- One row per crawl request that was watched or submitted.
	CREATE TABLE IF NOT EXISTS crawl_requests (
		uuid TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		options_json TEXT NOT NULL,
		created_at TEXT,
		updated_at TEXT,
		number_of_documents INTEGER DEFAULT 0,
		elapsed_ms INTEGER DEFAULT 0,
		cancelled_locally INTEGER DEFAULT 0,
		error TEXT DEFAULT '',
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_requests_saved_at ON crawl_requests(saved_at);

	-- Results keep arrival order in position; a result id appears once per request.
	CREATE TABLE IF NOT EXISTS crawl_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_uuid TEXT NOT NULL,
		uuid TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT,
		url TEXT,
		result TEXT,
		created_at TEXT,
		UNIQUE(request_uuid, uuid)
	);

	CREATE INDEX IF NOT EXISTS idx_results_request ON crawl_results(request_uuid, position);

	-- Fetched result payloads, keyed by the URL they were fetched from.
	CREATE TABLE IF NOT EXISTS result_documents (
		result_url TEXT PRIMARY KEY,
		request_uuid TEXT,
		content_hash TEXT NOT NULL,
		content BLOB NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RequestRecord is a crawl request as kept in history.
type RequestRecord struct {
	Request          model.CrawlRequest
	Elapsed          time.Duration
	CancelledLocally bool
	Error            string
	SavedAt          time.Time

	// ResultCount is the number of results stored for the request.
	ResultCount int
}

// SaveSummary stores a crawl summary in one transaction. The request is
// upserted by uuid and results already stored for it are left as they are,
// so saving the same crawl twice never duplicates a result.
func (h *HistoryDB) SaveSummary(ctx context.Context, summary *model.CrawlSummary) (err error) {
	if summary == nil || summary.Request == nil || summary.Request.UUID == "" {
		return ErrNoRequest
	}
	req := summary.Request

	optionsJSON, err := json.Marshal(req.Options)
	if err != nil {
		return fmt.Errorf("failed to serialize options: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO crawl_requests (uuid, url, status, options_json, created_at, updated_at,
		number_of_documents, elapsed_ms, cancelled_locally, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(uuid) DO UPDATE SET
		url = excluded.url,
		status = excluded.status,
		options_json = excluded.options_json,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		number_of_documents = excluded.number_of_documents,
		elapsed_ms = excluded.elapsed_ms,
		cancelled_locally = excluded.cancelled_locally,
		error = excluded.error,
		saved_at = CURRENT_TIMESTAMP
	`,
		req.UUID,
		req.URL,
		string(req.Status),
		string(optionsJSON),
		formatTime(req.CreatedAt),
		formatTime(req.UpdatedAt),
		req.NumberOfDocuments,
		summary.Elapsed.Milliseconds(),
		summary.CancelledLocally,
		summary.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl request: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO crawl_results (request_uuid, uuid, position, title, url, result, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(request_uuid, uuid) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range summary.Results {
		if _, err = stmt.ExecContext(ctx, req.UUID, r.UUID, i, r.Title, r.URL, r.Result, formatTime(r.CreatedAt)); err != nil {
			return fmt.Errorf("failed to save result %s: %w", r.UUID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

const selectRequest = `
	SELECT r.uuid, r.url, r.status, r.options_json, r.created_at, r.updated_at,
		r.number_of_documents, r.elapsed_ms, r.cancelled_locally, r.error, r.saved_at,
		(SELECT COUNT(*) FROM crawl_results c WHERE c.request_uuid = r.uuid)
	FROM crawl_requests r
	`

// ListRequests returns the most recently saved requests first.
// A limit of zero or less returns all of them.
func (h *HistoryDB) ListRequests(ctx context.Context, limit int) ([]RequestRecord, error) {
	query := selectRequest + " ORDER BY r.saved_at DESC, r.rowid DESC"
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	records := make([]RequestRecord, 0)
	for rows.Next() {
		rec, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// GetRequest returns one request by uuid, or ErrNotFound.
func (h *HistoryDB) GetRequest(ctx context.Context, uuid string) (*RequestRecord, error) {
	row := h.db.QueryRowContext(ctx, selectRequest+" WHERE r.uuid = ?", uuid)
	rec, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("crawl request %s: %w", uuid, ErrNotFound)
	}
	return rec, err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*RequestRecord, error) {
	var (
		rec                  RequestRecord
		status, optionsJSON  string
		createdAt, updatedAt sql.NullString
		savedAt              string
		elapsedMS            int64
	)

	err := row.Scan(
		&rec.Request.UUID,
		&rec.Request.URL,
		&status,
		&optionsJSON,
		&createdAt,
		&updatedAt,
		&rec.Request.NumberOfDocuments,
		&elapsedMS,
		&rec.CancelledLocally,
		&rec.Error,
		&savedAt,
		&rec.ResultCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}

	rec.Request.Status = model.Status(status)
	rec.Request.CreatedAt = parseTimestamp(createdAt.String)
	rec.Request.UpdatedAt = parseTimestamp(updatedAt.String)
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	rec.SavedAt = parseTimestamp(savedAt)

	if err := json.Unmarshal([]byte(optionsJSON), &rec.Request.Options); err != nil {
		return nil, fmt.Errorf("failed to parse options: %w", err)
	}
	return &rec, nil
}

// ListResults returns the stored results of a request in arrival order.
func (h *HistoryDB) ListResults(ctx context.Context, requestUUID string) ([]model.CrawlResult, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT uuid, title, url, result, created_at
	FROM crawl_results
	WHERE request_uuid = ?
	ORDER BY position, id
	`, requestUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	results := make([]model.CrawlResult, 0)
	for rows.Next() {
		var r model.CrawlResult
		var title, url, result, createdAt sql.NullString
		if err := rows.Scan(&r.UUID, &title, &url, &result, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Title, r.URL, r.Result = title.String, url.String, result.String
		r.CreatedAt = parseTimestamp(createdAt.String)
		results = append(results, r)
	}
	return results, rows.Err()
}

// DocumentRecord is a stored result payload.
type DocumentRecord struct {
	ResultURL   string
	RequestUUID string

	// ContentHash is the hex SHA3-256 of Content.
	ContentHash string
	Content     []byte
	FetchedAt   time.Time
}

// HashContent returns the hex SHA3-256 digest used as ContentHash.
func HashContent(content []byte) string {
	sum := sha3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SaveDocument stores a fetched result payload, replacing an earlier copy
// from the same URL. It returns the content hash.
func (h *HistoryDB) SaveDocument(ctx context.Context, requestUUID, resultURL string, content []byte) (string, error) {
	hash := HashContent(content)

	_, err := h.db.ExecContext(ctx, `
	INSERT INTO result_documents (result_url, request_uuid, content_hash, content)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(result_url) DO UPDATE SET
		request_uuid = excluded.request_uuid,
		content_hash = excluded.content_hash,
		content = excluded.content,
		fetched_at = CURRENT_TIMESTAMP
	`, resultURL, requestUUID, hash, content)
	if err != nil {
		return "", fmt.Errorf("failed to save document: %w", err)
	}
	return hash, nil
}

// GetDocument returns a stored payload by its URL, or ErrNotFound.
func (h *HistoryDB) GetDocument(ctx context.Context, resultURL string) (*DocumentRecord, error) {
	var rec DocumentRecord
	var requestUUID sql.NullString
	var fetchedAt string

	err := h.db.QueryRowContext(ctx, `
	SELECT result_url, request_uuid, content_hash, content, fetched_at
	FROM result_documents
	WHERE result_url = ?
	`, resultURL).Scan(&rec.ResultURL, &requestUUID, &rec.ContentHash, &rec.Content, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", resultURL, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	rec.RequestUUID = requestUUID.String
	rec.FetchedAt = parseTimestamp(fetchedAt)
	return &rec, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known format and returns the zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
