package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"bibdup/internal/config"
	"bibdup/internal/services"
)

// ErrNotFound indicates the requested record does not exist. It matches
// services.ErrNotFound so callers can classify it without importing records.
var ErrNotFound = fmt.Errorf("record %w", services.ErrNotFound)

// Store manages library records backed by SQLite. It implements Library.
type Store struct {
	db       *sql.DB
	path     string
	pageSize int
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	defaultPageSize = 50
)

// Open initializes or connects to the library database configured in cfg.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	store, err := OpenPath(cfg.Paths.LibraryDB)
	if err != nil {
		return nil, err
	}
	if cfg.Limits.SearchPageSize > 0 {
		store.pageSize = cfg.Limits.SearchPageSize
	}
	return store, nil
}

// OpenPath initializes or connects to the library database at the given path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, pageSize: defaultPageSize}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// EnsureCollection inserts or updates a collection row.
func (s *Store) EnsureCollection(ctx context.Context, key, name string, editable bool) error {
	flag := 0
	if editable {
		flag = 1
	}
	_, err := s.execWithRetry(
		ensureContext(ctx),
		`INSERT INTO collections (key, name, editable) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET name = excluded.name, editable = excluded.editable`,
		key, name, flag,
	)
	if err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	return nil
}

// Insert stores a new record and its creators. A key is generated when the
// input does not carry one.
func (s *Store) Insert(ctx context.Context, rec NewRecord) (Record, error) {
	ctx = ensureContext(ctx)
	key := strings.TrimSpace(rec.Key)
	if key == "" {
		key = uuid.NewString()
	}
	itemType := strings.TrimSpace(rec.ItemType)
	if itemType == "" {
		itemType = "journalArticle"
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO records (
            key, item_type, title, doi, isbn, issn, url, extra, date,
            collection_key, deleted, date_added
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		key,
		itemType,
		rec.Title,
		rec.DOI,
		rec.ISBN,
		rec.ISSN,
		rec.URL,
		rec.Extra,
		rec.Date,
		nullableString(rec.CollectionKey),
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	for position, creator := range rec.Creators {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO creators (record_key, position, first_name, last_name, full_name)
             VALUES (?, ?, ?, ?, ?)`,
			key, position, creator.FirstName, creator.LastName, creator.FullName,
		)
		if err != nil {
			return nil, fmt.Errorf("insert creator: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}

	return s.Get(ctx, key)
}

const recordColumns = `r.key, r.item_type, r.title, r.doi, r.isbn, r.issn, r.url, r.extra, r.date, r.deleted, COALESCE(c.editable, 1)`

const recordFrom = `FROM records r LEFT JOIN collections c ON c.key = r.collection_key`

// Get fetches a record by key, including deleted records so callers can check
// the deleted flag. Returns ErrNotFound when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` `+recordFrom+` WHERE r.key = ?`,
		key,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	if err := s.loadCreators(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete marks a record deleted. It never removes the row, so references to
// the key stay resolvable. Returns ErrNotFound for unknown keys.
func (s *Store) Delete(ctx context.Context, key string) error {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx, `UPDATE records SET deleted = 1 WHERE key = ? AND deleted = 0`, key)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		if scanErr := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM records WHERE key = ?`, key).Scan(&exists); scanErr != nil {
			return fmt.Errorf("delete record: %w", scanErr)
		}
		if exists == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		// Already deleted; treat as settled.
	}
	return nil
}

// Search executes a bounded query. Deleted records, attachments, and notes
// never appear in results; ordering is by insertion time then key so repeated
// searches are deterministic.
func (s *Store) Search(ctx context.Context, q Query) ([]Record, error) {
	ctx = ensureContext(ctx)

	var sb strings.Builder
	sb.WriteString(`SELECT ` + recordColumns + ` ` + recordFrom)
	sb.WriteString(` WHERE r.deleted = 0 AND r.item_type NOT IN (?, ?)`)
	args := []any{ItemTypeAttachment, ItemTypeNote}

	if q.ExcludeKey != "" {
		sb.WriteString(` AND r.key != ?`)
		args = append(args, q.ExcludeKey)
	}

	for _, cond := range q.Conditions {
		clause, condArgs, err := buildCondition(cond)
		if err != nil {
			return nil, err
		}
		sb.WriteString(` AND `)
		sb.WriteString(clause)
		args = append(args, condArgs...)
	}

	limit := q.Limit
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}
	sb.WriteString(` ORDER BY r.date_added, r.key LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	var found []*storedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		found = append(found, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}

	out := make([]Record, 0, len(found))
	for _, rec := range found {
		if err := s.loadCreators(ctx, rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// KeysAddedSince returns the keys of live records inserted at or after the
// given time, oldest first.
func (s *Store) KeysAddedSince(ctx context.Context, since time.Time) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT key FROM records
         WHERE deleted = 0 AND item_type NOT IN (?, ?) AND date_added >= ?
         ORDER BY date_added, key`,
		ItemTypeAttachment, ItemTypeNote, since.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

func buildCondition(cond Condition) (string, []any, error) {
	if cond.Field == FieldCreator {
		switch cond.Op {
		case OpEquals:
			return `EXISTS (SELECT 1 FROM creators cr WHERE cr.record_key = r.key
                AND (lower(cr.last_name) = lower(?) OR lower(cr.full_name) = lower(?)))`,
				[]any{cond.Value, cond.Value}, nil
		case OpContains:
			return `EXISTS (SELECT 1 FROM creators cr WHERE cr.record_key = r.key
                AND (instr(lower(cr.last_name), lower(?)) > 0 OR instr(lower(cr.full_name), lower(?)) > 0))`,
				[]any{cond.Value, cond.Value}, nil
		}
		return "", nil, fmt.Errorf("unsupported creator op %q", cond.Op)
	}

	column, ok := conditionColumns[cond.Field]
	if !ok {
		return "", nil, fmt.Errorf("unsupported search field %q", cond.Field)
	}
	switch cond.Op {
	case OpEquals:
		return `lower(` + column + `) = lower(?)`, []any{cond.Value}, nil
	case OpContains:
		return `instr(lower(` + column + `), lower(?)) > 0`, []any{cond.Value}, nil
	}
	return "", nil, fmt.Errorf("unsupported search op %q", cond.Op)
}

var conditionColumns = map[string]string{
	FieldTitle:    "r.title",
	FieldDOI:      "r.doi",
	FieldISBN:     "r.isbn",
	FieldISSN:     "r.issn",
	FieldURL:      "r.url",
	FieldExtra:    "r.extra",
	FieldDate:     "r.date",
	FieldItemType: "r.item_type",
}

func (s *Store) loadCreators(ctx context.Context, rec *storedRecord) error {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT first_name, last_name, full_name FROM creators WHERE record_key = ? ORDER BY position`,
		rec.key,
	)
	if err != nil {
		return fmt.Errorf("load creators: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var creator Creator
		if err := rows.Scan(&creator.FirstName, &creator.LastName, &creator.FullName); err != nil {
			return fmt.Errorf("scan creator: %w", err)
		}
		rec.creators = append(rec.creators, creator)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load creators: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*storedRecord, error) {
	rec := &storedRecord{}
	var deleted, editable int
	err := row.Scan(
		&rec.key,
		&rec.itemType,
		&rec.title,
		&rec.doi,
		&rec.isbn,
		&rec.issn,
		&rec.url,
		&rec.extra,
		&rec.date,
		&deleted,
		&editable,
	)
	if err != nil {
		return nil, err
	}
	rec.deleted = deleted != 0
	rec.editable = editable != 0
	return rec, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

type storedRecord struct {
	key      string
	itemType string
	title    string
	doi      string
	isbn     string
	issn     string
	url      string
	extra    string
	date     string
	deleted  bool
	editable bool
	creators []Creator
}

func (r *storedRecord) Key() string { return r.key }

func (r *storedRecord) Field(name string) string {
	switch name {
	case FieldTitle:
		return r.title
	case FieldDOI:
		return r.doi
	case FieldISBN:
		return r.isbn
	case FieldISSN:
		return r.issn
	case FieldURL:
		return r.url
	case FieldExtra:
		return r.extra
	case FieldDate:
		return r.date
	case FieldItemType:
		return r.itemType
	default:
		return ""
	}
}

func (r *storedRecord) Creators() []Creator { return r.creators }

func (r *storedRecord) IsEditable() bool { return r.editable }

func (r *storedRecord) IsDeleted() bool { return r.deleted }
