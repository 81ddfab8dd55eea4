package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const buildColumns = `id, seq, source_hash, options, status, unit_count, error`

// LookupBuild returns the latest successful build of the given source hash
// and options, with its units in emission order. Returns ErrNotFound when
// there is none.
func (s *Store) LookupBuild(ctx context.Context, sourceHash string, options map[string]string) (Build, []Unit, error) {
	optionsJSON, err := marshalOptions(options)
	if err != nil {
		return Build{}, nil, fmt.Errorf("lookup build: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+`
		FROM builds
		WHERE source_hash = ? AND options = ? AND status = ?
		ORDER BY seq DESC, id ASC COLLATE BINARY
		LIMIT 1
	`, sourceHash, optionsJSON, string(StatusOK))

	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, nil, ErrNotFound
	}
	if err != nil {
		return Build{}, nil, fmt.Errorf("lookup build: %w", err)
	}

	units, err := s.ReadUnits(ctx, b.ID)
	if err != nil {
		return Build{}, nil, err
	}
	return b, units, nil
}

// ReadBuild retrieves a single build by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) ReadBuild(ctx context.Context, id string) (Build, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buildColumns+` FROM builds WHERE id = ?`, id)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, ErrNotFound
	}
	if err != nil {
		return Build{}, fmt.Errorf("read build: %w", err)
	}
	return b, nil
}

// ReadUnits returns the units of a build ordered by ord.
func (s *Store) ReadUnits(ctx context.Context, buildID string) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, ord, content_hash, content
		FROM units
		WHERE build_id = ?
		ORDER BY ord ASC, name ASC COLLATE BINARY
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("read units: %w", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.Name, &u.Ord, &u.ContentHash, &u.Content); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read units: %w", err)
	}
	return units, nil
}

// ListBuilds returns recorded builds, newest first. A limit of zero or
// less returns all of them.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]Build, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+buildColumns+`
		FROM builds
		ORDER BY seq DESC, id ASC COLLATE BINARY
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("list builds: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	return builds, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (Build, error) {
	var b Build
	var status, optionsJSON string
	if err := row.Scan(&b.ID, &b.Seq, &b.SourceHash, &optionsJSON, &status, &b.UnitCount, &b.Error); err != nil {
		return Build{}, err
	}
	b.Status = Status(status)

	opts, err := unmarshalOptions(optionsJSON)
	if err != nil {
		return Build{}, err
	}
	b.Options = opts
	return b, nil
}
