package index

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kailas-cloud/docqa/internal/domain"
	_ "modernc.org/sqlite" // pure Go sqlite driver
)

const segmentsSchema = `CREATE TABLE IF NOT EXISTS segments (
	ord      INTEGER PRIMARY KEY,
	document TEXT NOT NULL,
	page     INTEGER NOT NULL,
	text     TEXT NOT NULL
);`

func openStore(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}

// writeSegments replaces the stored segment set in a single transaction.
func writeSegments(ctx context.Context, path string, segs []domain.Segment) error {
	db, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, segmentsSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM segments`); err != nil {
		return fmt.Errorf("clear segments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO segments(ord, document, page, text) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range segs {
		if _, err := stmt.ExecContext(ctx, s.Ordinal, s.Document, s.Page, s.Text); err != nil {
			return fmt.Errorf("insert segment %d: %w", s.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// readSegments loads all stored segments ordered by ordinal.
func readSegments(path string) ([]domain.Segment, error) {
	db, err := openStore(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT ord, document, page, text FROM segments ORDER BY ord`)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var segs []domain.Segment
	for rows.Next() {
		var s domain.Segment
		if err := rows.Scan(&s.Ordinal, &s.Document, &s.Page, &s.Text); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segs = append(segs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}
	return segs, nil
}
