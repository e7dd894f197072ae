// internal/baseline/store.go

// Package baseline implements the known-product store the diff engine
// classifies against. The pipeline reads it; all writes happen through
// Record, which the storage-owning caller invokes after a run's routing
// plan is applied.
package baseline

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modestry/catalogpipe/internal/catalog"
)

// SQLStore backs the baseline with a relational database. The same
// statement set serves SQLite, PostgreSQL, and MySQL; only placeholder
// style and upsert syntax differ per driver.
type SQLStore struct {
	db      *sql.DB
	table   string
	dialect dialect
}

type dialect struct {
	name       string
	rebind     func(string) string
	upsertTail string
	textType   string
	doubleType string
	timeType   string
}

// Lookup implements the diff engine's exact-key query.
func (s *SQLStore) Lookup(ctx context.Context, retailer string, key catalog.MatchKey) (*catalog.BaselineRecord, error) {
	if key.IsZero() {
		return nil, nil
	}

	query := s.dialect.rebind(fmt.Sprintf(
		`SELECT retailer, product_code, normalized_title, price_amount, price_currency, last_seen
		 FROM %s WHERE retailer = ? AND match_key = ?`, s.table))

	row := s.db.QueryRowContext(ctx, query, retailer, key.String())
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("baseline lookup: %w", err)
	}
	return rec, nil
}

// NearNeighbors implements the bounded fuzzy-comparison query: same
// retailer, same first title token.
func (s *SQLStore) NearNeighbors(ctx context.Context, retailer, firstToken string) ([]catalog.BaselineRecord, error) {
	if firstToken == "" {
		return nil, nil
	}

	query := s.dialect.rebind(fmt.Sprintf(
		`SELECT retailer, product_code, normalized_title, price_amount, price_currency, last_seen
		 FROM %s WHERE retailer = ? AND first_token = ? ORDER BY normalized_title`, s.table))

	rows, err := s.db.QueryContext(ctx, query, retailer, firstToken)
	if err != nil {
		return nil, fmt.Errorf("baseline near-neighbor query: %w", err)
	}
	defer rows.Close()

	var out []catalog.BaselineRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("baseline near-neighbor scan: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Record upserts one baseline entry, refreshing last_seen on conflict.
func (s *SQLStore) Record(ctx context.Context, rec catalog.BaselineRecord) error {
	key := rec.Key()
	if key.IsZero() {
		return fmt.Errorf("baseline record has no derivable match key")
	}
	if rec.LastSeen.IsZero() {
		rec.LastSeen = time.Now().UTC()
	}

	query := s.dialect.rebind(fmt.Sprintf(
		`INSERT INTO %s (retailer, match_key, product_code, normalized_title, first_token, price_amount, price_currency, last_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) %s`, s.table, s.dialect.upsertTail))

	_, err := s.db.ExecContext(ctx, query,
		rec.Retailer, key.String(), rec.ProductCode, rec.NormalizedTitle,
		catalog.FirstToken(rec.NormalizedTitle), rec.Price.Amount, rec.Price.Currency, rec.LastSeen)
	if err != nil {
		return fmt.Errorf("baseline record: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) ensureSchema() error {
	d := s.dialect
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		retailer %s NOT NULL,
		match_key %s NOT NULL,
		product_code %s,
		normalized_title %s NOT NULL,
		first_token %s NOT NULL,
		price_amount %s NOT NULL,
		price_currency %s NOT NULL,
		last_seen %s NOT NULL,
		PRIMARY KEY (retailer, match_key)
	)`, s.table, d.textType, d.textType, d.textType, d.textType, d.textType, d.doubleType, d.textType, d.timeType)

	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("baseline schema: %w", err)
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_neighbors ON %s (retailer, first_token)`, s.table, s.table)
	if _, err := s.db.Exec(index); err != nil && d.name != "mysql" {
		// MySQL before 8.0.13 lacks IF NOT EXISTS on indexes; a
		// duplicate-index error there is harmless.
		return fmt.Errorf("baseline index: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*catalog.BaselineRecord, error) {
	var rec catalog.BaselineRecord
	var code sql.NullString
	if err := row.Scan(&rec.Retailer, &code, &rec.NormalizedTitle, &rec.Price.Amount, &rec.Price.Currency, &rec.LastSeen); err != nil {
		return nil, err
	}
	rec.ProductCode = code.String
	return &rec, nil
}

// rebindPositional rewrites ? placeholders to $1..$n for PostgreSQL.
func rebindPositional(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func passthrough(query string) string { return query }
