package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"partyfinder/internal/database"
	"partyfinder/internal/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("PRAGMA busy_timeout = 5000")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zerolog.Nop()))
	return db
}

func newTestProfileRepo(t *testing.T) *ProfileRepository {
	t.Helper()
	return NewProfileRepository(newTestDB(t), zerolog.Nop())
}

func rolePtr(r domain.Role) *domain.Role { return &r }
func modePtr(m domain.Mode) *domain.Mode { return &m }
func intPtr(n int) *int                  { return &n }
func boolPtr(b bool) *bool               { return &b }
func strPtr(s string) *string            { return &s }

func TestUpsertCreatesAndGets(t *testing.T) {
	repo := newTestProfileRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, 42)
	require.ErrorIs(t, err, domain.ErrProfileNotFound)

	err = repo.Upsert(ctx, 42, domain.ProfilePatch{
		Role:   rolePtr(domain.RoleMid),
		Rating: intPtr(4000),
		Handle: strPtr("midlaner"),
	})
	require.NoError(t, err)

	p, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, domain.RoleMid, *p.Role)
	require.Equal(t, 4000, *p.Rating)
	require.Equal(t, "midlaner", p.Handle)
	require.Nil(t, p.Mode)
	require.False(t, p.Visible)
	require.False(t, p.WantsFullParty)
}

func TestUpsertMergesInsteadOfReplacing(t *testing.T) {
	repo := newTestProfileRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, 1, domain.ProfilePatch{Role: rolePtr(domain.RoleCarry)}))
	require.NoError(t, repo.Upsert(ctx, 1, domain.ProfilePatch{Rating: intPtr(3500)}))
	require.NoError(t, repo.Upsert(ctx, 1, domain.ProfilePatch{Mode: modePtr(domain.ModeRanked)}))

	p, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, domain.RoleCarry, *p.Role)
	require.Equal(t, 3500, *p.Rating)
	require.Equal(t, domain.ModeRanked, *p.Mode)

	// A later upsert that omits a field never clears the earlier value.
	require.NoError(t, repo.Upsert(ctx, 1, domain.ProfilePatch{Rating: intPtr(3600)}))
	p, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, domain.RoleCarry, *p.Role)
	require.Equal(t, 3600, *p.Rating)
}

func TestUpsertConcurrentWritersKeepAllFields(t *testing.T) {
	repo := newTestProfileRepo(t)
	ctx := context.Background()

	var g errgroup.Group
	g.Go(func() error {
		return repo.Upsert(ctx, 7, domain.ProfilePatch{Role: rolePtr(domain.RoleOfflane)})
	})
	g.Go(func() error {
		return repo.Upsert(ctx, 7, domain.ProfilePatch{Visible: boolPtr(true)})
	})
	g.Go(func() error {
		return repo.Upsert(ctx, 7, domain.ProfilePatch{WantsFullParty: boolPtr(true)})
	})
	require.NoError(t, g.Wait())

	p, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, domain.RoleOfflane, *p.Role)
	require.True(t, p.Visible)
	require.True(t, p.WantsFullParty)
}

func TestListVisible(t *testing.T) {
	repo := newTestProfileRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, 3, domain.ProfilePatch{Visible: boolPtr(true)}))
	require.NoError(t, repo.Upsert(ctx, 1, domain.ProfilePatch{Visible: boolPtr(true)}))
	require.NoError(t, repo.Upsert(ctx, 2, domain.ProfilePatch{Visible: boolPtr(false)}))
	require.NoError(t, repo.Upsert(ctx, 4, domain.ProfilePatch{Visible: boolPtr(true)}))

	profiles, err := repo.ListVisible(ctx, 4)
	require.NoError(t, err)

	var ids []int64
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	// Hidden rows and the requester are excluded; order is stable by user_id.
	require.Equal(t, []int64{1, 3}, ids)
}

func TestCounts(t *testing.T) {
	repo := newTestProfileRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, 1, domain.ProfilePatch{Visible: boolPtr(true)}))
	require.NoError(t, repo.Upsert(ctx, 2, domain.ProfilePatch{}))

	total, visible, err := repo.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, 1, visible)
}
