package store

import (
	"context"
	"fmt"
)

// Status is the outcome of a build.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Build is one recorded transpilation.
type Build struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	SourceHash string `json:"source_hash"`
	// Options are the settings that change generated output, such as the
	// aggregate unit name. Lookups only match builds with equal options.
	Options   map[string]string `json:"options,omitempty"`
	Status    Status            `json:"status"`
	UnitCount int               `json:"unit_count"`
	Error     string            `json:"error,omitempty"`
}

// Unit is one generated output unit of a successful build.
type Unit struct {
	Name        string
	Ord         int
	ContentHash string
	Content     string
}

// RecordBuild stores b and its units in a single transaction and returns
// the stored build with ID and Seq assigned.
//
// An empty ID is filled from the store's IDGenerator. Seq is always
// assigned by the store as one past the highest recorded seq. Units are
// numbered in the order given and their content hashes computed; units of
// a failed build are rejected.
func (s *Store) RecordBuild(ctx context.Context, b Build, units []Unit) (Build, error) {
	if b.Status == "" {
		b.Status = StatusOK
	}
	if b.Status == StatusFailed && len(units) > 0 {
		return Build{}, fmt.Errorf("record build: failed build with %d units", len(units))
	}
	if b.ID == "" {
		b.ID = s.ids.Generate()
	}
	b.UnitCount = len(units)

	optionsJSON, err := marshalOptions(b.Options)
	if err != nil {
		return Build{}, fmt.Errorf("record build: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Build{}, fmt.Errorf("record build: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM builds`).Scan(&b.Seq); err != nil {
		return Build{}, fmt.Errorf("record build: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds
		(id, seq, source_hash, options, status, unit_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID,
		b.Seq,
		b.SourceHash,
		optionsJSON,
		string(b.Status),
		b.UnitCount,
		b.Error,
	)
	if err != nil {
		return Build{}, fmt.Errorf("record build: insert build: %w", err)
	}

	for i, u := range units {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO units
			(build_id, name, ord, content_hash, content)
			VALUES (?, ?, ?, ?, ?)
		`,
			b.ID,
			u.Name,
			i,
			ContentHash(u.Content),
			u.Content,
		)
		if err != nil {
			return Build{}, fmt.Errorf("record build: insert unit %q: %w", u.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Build{}, fmt.Errorf("record build: commit: %w", err)
	}
	return b, nil
}
