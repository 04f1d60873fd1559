package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitekeywords/internal/model"
)

// DBFileName is the name of the history database inside the data directory.
const DBFileName = "sitekeywords.db"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("crawl run not found")

// CrawlDB stores finished crawl runs in SQLite: run metadata, the status of
// every visited page and the final keyword ranking.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
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

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		max_pages INTEGER NOT NULL,
		top_k INTEGER NOT NULL,
		pages_visited INTEGER NOT NULL,
		pages_failed INTEGER NOT NULL,
		links_dropped INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per visited URL, in visit order.
	CREATE TABLE IF NOT EXISTS pages (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		status_code INTEGER,
		title TEXT,
		keywords TEXT,
		scores TEXT,
		links_found INTEGER,
		content_bytes INTEGER,
		error TEXT,
		PRIMARY KEY (run_id, position)
	);

	-- The final ranking, rank 1 first.
	CREATE TABLE IF NOT EXISTS keywords (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		rank INTEGER NOT NULL,
		phrase TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (run_id, rank)
	);

	CREATE INDEX IF NOT EXISTS idx_keywords_phrase ON keywords(phrase);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a finished crawl and returns its run ID.
// A report without an ID is assigned a new UUID, which is also written back
// to report.ID. Saving a report whose ID is already stored replaces it.
func (cdb *CrawlDB) SaveReport(ctx context.Context, report *model.CrawlReport) (string, error) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // No-op after commit.
	}()

	for _, table := range []string{"keywords", "pages", "runs"} {
		column := "run_id"
		if table == "runs" {
			column = "id"
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+column+" = ?", report.ID); err != nil { //nolint:gosec // Table names are constants.
			return "", fmt.Errorf("failed to replace run: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, seed_url, started_at, finished_at, max_pages, top_k, pages_visited, pages_failed, links_dropped, cancelled)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.SeedURL,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		report.MaxPages,
		report.TopK,
		report.PagesVisited(),
		report.PagesFailed(),
		report.LinksDropped,
		report.Cancelled,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	pageStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, position, url, status_code, title, keywords, scores, links_found, content_bytes, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer pageStmt.Close()

	for i, page := range report.Pages {
		keywordsJSON, err := json.Marshal(page.Keywords)
		if err != nil {
			return "", fmt.Errorf("failed to serialize keywords: %w", err)
		}
		scoresJSON, err := json.Marshal(page.Scores)
		if err != nil {
			return "", fmt.Errorf("failed to serialize scores: %w", err)
		}
		if _, err := pageStmt.ExecContext(ctx,
			report.ID,
			i,
			page.URL,
			page.StatusCode,
			page.Title,
			string(keywordsJSON),
			string(scoresJSON),
			page.LinksFound,
			page.ContentBytes,
			page.Error,
		); err != nil {
			return "", fmt.Errorf("failed to insert page %s: %w", page.URL, err)
		}
	}

	keywordStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO keywords (run_id, rank, phrase, count) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare keyword insert: %w", err)
	}
	defer keywordStmt.Close()

	for i, kw := range report.Keywords {
		if _, err := keywordStmt.ExecContext(ctx, report.ID, i+1, kw.Phrase, kw.Count); err != nil {
			return "", fmt.Errorf("failed to insert keyword %q: %w", kw.Phrase, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	return report.ID, nil
}

// RunMetadata contains summary information about a stored run.
type RunMetadata struct {
	// ID is the run's UUID.
	ID string

	// SeedURL is the normalized seed of the crawl.
	SeedURL string

	// StartedAt is when the crawl started.
	StartedAt time.Time

	// FinishedAt is when the crawl finished.
	FinishedAt time.Time

	// MaxPages is the page budget.
	MaxPages int

	// TopK is the per-page keyword count.
	TopK int

	// PagesVisited is the number of visited URLs.
	PagesVisited int

	// PagesFailed is the number of visited URLs that failed.
	PagesFailed int

	// LinksDropped counts links lost to the pending queue bound.
	LinksDropped int

	// Cancelled is true for interrupted crawls.
	Cancelled bool

	// KeywordCount is the length of the stored ranking.
	KeywordCount int
}

const runColumns = `
	r.id, r.seed_url, r.started_at, r.finished_at, r.max_pages, r.top_k,
	r.pages_visited, r.pages_failed, r.links_dropped, r.cancelled,
	(SELECT COUNT(*) FROM keywords k WHERE k.run_id = r.id)
`

// ListRuns returns stored runs, newest first. A non-empty seedURL restricts
// the list to runs of that seed.
func (cdb *CrawlDB) ListRuns(ctx context.Context, seedURL string) ([]RunMetadata, error) {
	query := "SELECT " + runColumns + " FROM runs r"
	args := make([]any, 0, 1)
	if seedURL != "" {
		query += " WHERE r.seed_url = ?"
		args = append(args, seedURL)
	}
	query += " ORDER BY r.started_at DESC, r.id"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	results := make([]RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *meta)
	}

	return results, rows.Err()
}

// GetRun returns the metadata of one run, or ErrRunNotFound.
func (cdb *CrawlDB) GetRun(ctx context.Context, id string) (*RunMetadata, error) {
	row := cdb.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs r WHERE r.id = ?", id)
	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// GetRunKeywords returns the stored ranking of a run, best first, or
// ErrRunNotFound.
func (cdb *CrawlDB) GetRunKeywords(ctx context.Context, id string) ([]model.KeywordCount, error) {
	if err := cdb.requireRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := cdb.db.QueryContext(ctx, `
	SELECT phrase, count FROM keywords
	WHERE run_id = ?
	ORDER BY rank
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get keywords: %w", err)
	}
	defer rows.Close()

	keywords := make([]model.KeywordCount, 0)
	for rows.Next() {
		var kw model.KeywordCount
		if err := rows.Scan(&kw.Phrase, &kw.Count); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}

	return keywords, rows.Err()
}

// GetRunPages returns the visited pages of a run in visit order, or
// ErrRunNotFound.
func (cdb *CrawlDB) GetRunPages(ctx context.Context, id string) ([]model.PageSummary, error) {
	if err := cdb.requireRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, status_code, title, keywords, scores, links_found, content_bytes, error
	FROM pages
	WHERE run_id = ?
	ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	defer rows.Close()

	pages := make([]model.PageSummary, 0)
	for rows.Next() {
		var page model.PageSummary
		var keywordsJSON, scoresJSON sql.NullString
		if err := rows.Scan(
			&page.URL,
			&page.StatusCode,
			&page.Title,
			&keywordsJSON,
			&scoresJSON,
			&page.LinksFound,
			&page.ContentBytes,
			&page.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		if keywordsJSON.Valid && keywordsJSON.String != "" {
			if err := json.Unmarshal([]byte(keywordsJSON.String), &page.Keywords); err != nil {
				return nil, fmt.Errorf("failed to parse keywords of %s: %w", page.URL, err)
			}
		}
		if scoresJSON.Valid && scoresJSON.String != "" {
			if err := json.Unmarshal([]byte(scoresJSON.String), &page.Scores); err != nil {
				return nil, fmt.Errorf("failed to parse scores of %s: %w", page.URL, err)
			}
		}
		pages = append(pages, page)
	}

	return pages, rows.Err()
}

// LoadReport reassembles a stored run into a CrawlReport, or returns
// ErrRunNotFound.
func (cdb *CrawlDB) LoadReport(ctx context.Context, id string) (*model.CrawlReport, error) {
	meta, err := cdb.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	pages, err := cdb.GetRunPages(ctx, id)
	if err != nil {
		return nil, err
	}
	keywords, err := cdb.GetRunKeywords(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.CrawlReport{
		ID:           meta.ID,
		SeedURL:      meta.SeedURL,
		MaxPages:     meta.MaxPages,
		TopK:         meta.TopK,
		StartedAt:    meta.StartedAt,
		FinishedAt:   meta.FinishedAt,
		Pages:        pages,
		Keywords:     keywords,
		LinksDropped: meta.LinksDropped,
		Cancelled:    meta.Cancelled,
	}, nil
}

func (cdb *CrawlDB) requireRun(ctx context.Context, id string) error {
	var n int
	if err := cdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", id).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunMetadata, error) {
	var meta RunMetadata
	var startedAt, finishedAt string

	err := row.Scan(
		&meta.ID,
		&meta.SeedURL,
		&startedAt,
		&finishedAt,
		&meta.MaxPages,
		&meta.TopK,
		&meta.PagesVisited,
		&meta.PagesFailed,
		&meta.LinksDropped,
		&meta.Cancelled,
		&meta.KeywordCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	meta.StartedAt = parseTimestamp(startedAt)
	meta.FinishedAt = parseTimestamp(finishedAt)

	return &meta, nil
}

// formatTimestamp stores times in UTC with a fixed width so that the text
// column sorts chronologically.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// timestampFormats contains the timestamp formats that may be stored.
var timestampFormats = []string{
	"2006-01-02T15:04:05.000000000Z",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// parseTimestamp returns the zero time if no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
