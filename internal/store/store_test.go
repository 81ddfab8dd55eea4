package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore opens a store in a temp dir with fixed build IDs.
func createTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(NewFixedGenerator(ids...)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleUnits() []Unit {
	return []Unit{
		{Name: "Point", Content: "struct Point {}\n"},
		{Name: "galvan_module", Content: "fn main() {}\n"},
	}
}

// =============================================================================
// Open
// =============================================================================

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)
	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"foreign_keys": "1",
		"busy_timeout": "5000",
		"user_version": "1",
	} {
		got, err := s.pragma(context.Background(), name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestClose_NilDB(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

// =============================================================================
// RecordBuild / LookupBuild
// =============================================================================

func TestRecordBuild_AssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t, "b1", "b2")
	ctx := context.Background()

	b1, err := s.RecordBuild(ctx, Build{SourceHash: "h1"}, sampleUnits())
	require.NoError(t, err)
	assert.Equal(t, "b1", b1.ID)
	assert.Equal(t, int64(1), b1.Seq)
	assert.Equal(t, StatusOK, b1.Status)
	assert.Equal(t, 2, b1.UnitCount)

	b2, err := s.RecordBuild(ctx, Build{SourceHash: "h2", Status: StatusFailed, Error: "boom"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "b2", b2.ID)
	assert.Equal(t, int64(2), b2.Seq)
}

func TestRecordBuild_KeepsExplicitID(t *testing.T) {
	s := createTestStore(t)
	b, err := s.RecordBuild(context.Background(), Build{ID: "given", SourceHash: "h"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "given", b.ID)
}

func TestRecordBuild_FailedWithUnitsRejected(t *testing.T) {
	s := createTestStore(t, "b1")
	_, err := s.RecordBuild(context.Background(), Build{SourceHash: "h", Status: StatusFailed}, sampleUnits())
	require.Error(t, err)

	builds, err := s.ListBuilds(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, builds)
}

func TestRecordBuild_DuplicateUnitRollsBack(t *testing.T) {
	s := createTestStore(t, "b1")
	units := []Unit{{Name: "A", Content: "x"}, {Name: "A", Content: "y"}}
	_, err := s.RecordBuild(context.Background(), Build{SourceHash: "h"}, units)
	require.Error(t, err)

	_, err = s.ReadBuild(context.Background(), "b1")
	assert.ErrorIs(t, err, ErrNotFound, "transaction rolled back")
}

func TestLookupBuild_ReturnsUnitsInOrder(t *testing.T) {
	s := createTestStore(t, "b1")
	ctx := context.Background()
	_, err := s.RecordBuild(ctx, Build{SourceHash: "h"}, sampleUnits())
	require.NoError(t, err)

	b, units, err := s.LookupBuild(ctx, "h", nil)
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)
	require.Len(t, units, 2)
	assert.Equal(t, "Point", units[0].Name)
	assert.Equal(t, 0, units[0].Ord)
	assert.Equal(t, "galvan_module", units[1].Name)
	assert.Equal(t, ContentHash("fn main() {}\n"), units[1].ContentHash)
}

func TestLookupBuild_LatestSuccessful(t *testing.T) {
	s := createTestStore(t, "old", "new", "broken")
	ctx := context.Background()
	_, err := s.RecordBuild(ctx, Build{SourceHash: "h"}, []Unit{{Name: "A", Content: "old"}})
	require.NoError(t, err)
	_, err = s.RecordBuild(ctx, Build{SourceHash: "h"}, []Unit{{Name: "A", Content: "new"}})
	require.NoError(t, err)
	_, err = s.RecordBuild(ctx, Build{SourceHash: "h", Status: StatusFailed, Error: "x"}, nil)
	require.NoError(t, err)

	b, units, err := s.LookupBuild(ctx, "h", nil)
	require.NoError(t, err)
	assert.Equal(t, "new", b.ID)
	assert.Equal(t, "new", units[0].Content)
}

func TestLookupBuild_MatchesOptions(t *testing.T) {
	s := createTestStore(t, "b1")
	ctx := context.Background()
	opts := map[string]string{"aggregate_unit": "app", "extension": ".rs"}
	_, err := s.RecordBuild(ctx, Build{SourceHash: "h", Options: opts}, sampleUnits())
	require.NoError(t, err)

	b, _, err := s.LookupBuild(ctx, "h", map[string]string{"extension": ".rs", "aggregate_unit": "app"})
	require.NoError(t, err)
	assert.Equal(t, opts, b.Options)

	_, _, err = s.LookupBuild(ctx, "h", map[string]string{"aggregate_unit": "other"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.LookupBuild(ctx, "h", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupBuild_NotFound(t *testing.T) {
	s := createTestStore(t, "b1")
	ctx := context.Background()
	_, _, err := s.LookupBuild(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.RecordBuild(ctx, Build{SourceHash: "h", Status: StatusFailed}, nil)
	require.NoError(t, err)
	_, _, err = s.LookupBuild(ctx, "h", nil)
	assert.ErrorIs(t, err, ErrNotFound, "failed builds are not cache hits")
}

// =============================================================================
// ListBuilds
// =============================================================================

func TestListBuilds_NewestFirst(t *testing.T) {
	s := createTestStore(t, "a", "b", "c")
	ctx := context.Background()
	for _, h := range []string{"h1", "h2", "h3"} {
		_, err := s.RecordBuild(ctx, Build{SourceHash: h}, nil)
		require.NoError(t, err)
	}

	all, err := s.ListBuilds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	two, err := s.ListBuilds(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, int64(3), two[0].Seq)
}

// =============================================================================
// IDs and hashing
// =============================================================================

func TestUUIDv7Generator(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, id, UUIDv7Generator{}.Generate())
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("x", "y")
	assert.Equal(t, "x", g.Generate())
	assert.Equal(t, "y", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestFixedGenerator_Concurrent(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	g := NewFixedGenerator(ids...)

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, len(ids))
}

func TestContentHash(t *testing.T) {
	h := ContentHash("fn main() {}")
	assert.Len(t, h, 64)
	assert.Equal(t, h, ContentHash("fn main() {}"))
	assert.NotEqual(t, h, ContentHash("fn main() { }"))
}

func TestMarshalOptions_Deterministic(t *testing.T) {
	a, err := marshalOptions(map[string]string{"b": "2", "a": "<1>"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<1>","b":"2"}`, a)

	empty, err := marshalOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", empty)

	back, err := unmarshalOptions(a)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "<1>", "b": "2"}, back)
}
