package storage

import (
	"context"
	"fmt"
	"sync"

	"labgraph/internal/models"
	"labgraph/internal/util"
)

type PostgresSink struct {
	db *DB

	schemaMu       sync.Mutex
	schemaPrepared bool
}

func NewPostgresSink(db *DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) SaveSample(ctx context.Context, t models.SampleTables) error {
	records, err := sampleRecords(t)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx save sample: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, r := range records {
		if _, err := tx.Exec(ctx, r.deleteSQL(dollar), util.SanitizeText(t.BatchID), util.SanitizeText(t.SampleID)); err != nil {
			return fmt.Errorf("clear %s: %w", r.table, err)
		}
		insert := r.insertSQL(dollar)
		for _, v := range r.values {
			if _, err := tx.Exec(ctx, insert, v...); err != nil {
				return fmt.Errorf("insert %s: %w", r.table, err)
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save sample tx: %w", err)
	}
	return nil
}

func (s *PostgresSink) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaPrepared {
		return nil
	}
	for _, stmt := range schemaStatements {
		if _, err := s.db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure lab schema: %w", err)
		}
	}
	s.schemaPrepared = true
	return nil
}

func (s *PostgresSink) Close() error {
	s.db.Close()
	return nil
}
