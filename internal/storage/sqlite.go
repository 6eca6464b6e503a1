package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"labgraph/internal/models"
	"labgraph/internal/util"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteSink keeps the tables in a single SQLite file.
type SQLiteSink struct {
	db *sql.DB
}

func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path == "" {
		path = "labgraph.db"
	}
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure lab schema: %w", err)
		}
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) SaveSample(ctx context.Context, t models.SampleTables) (retErr error) {
	records, err := sampleRecords(t)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save sample: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range records {
		if _, err := tx.ExecContext(ctx, r.deleteSQL(question), util.SanitizeText(t.BatchID), util.SanitizeText(t.SampleID)); err != nil {
			return fmt.Errorf("clear %s: %w", r.table, err)
		}
		stmt, err := tx.PrepareContext(ctx, r.insertSQL(question))
		if err != nil {
			return fmt.Errorf("prepare insert %s: %w", r.table, err)
		}
		for _, v := range r.values {
			if _, err := stmt.ExecContext(ctx, v...); err != nil {
				_ = stmt.Close()
				return fmt.Errorf("insert %s: %w", r.table, err)
			}
		}
		_ = stmt.Close()
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save sample tx: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
