package service

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"partyfinder/internal/database"
	"partyfinder/internal/domain"
	"partyfinder/internal/repository"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	profiles *repository.ProfileRepository
	search   *SearchService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, zerolog.Nop()))

	profiles := repository.NewProfileRepository(db, zerolog.Nop())
	searchLog := repository.NewSearchLogRepository(db, zerolog.Nop())
	return &fixture{
		profiles: profiles,
		search:   NewSearchService(profiles, searchLog, zerolog.Nop()),
	}
}

type seed struct {
	userID    int64
	role      *domain.Role
	mode      *domain.Mode
	rating    *int
	visible   bool
	fullParty bool
}

func (f *fixture) seed(t *testing.T, rows ...seed) {
	t.Helper()
	ctx := context.Background()
	for _, s := range rows {
		patch := domain.ProfilePatch{
			Role:           s.role,
			Mode:           s.mode,
			Rating:         s.rating,
			Visible:        &s.visible,
			WantsFullParty: &s.fullParty,
		}
		require.NoError(t, f.profiles.Upsert(ctx, s.userID, patch))
	}
}

func rolePtr(r domain.Role) *domain.Role { return &r }
func modePtr(m domain.Mode) *domain.Mode { return &m }
func intPtr(n int) *int                  { return &n }
func boolPtr(b bool) *bool               { return &b }

func ids(profiles []domain.Profile) []int64 {
	var out []int64
	for _, p := range profiles {
		out = append(out, p.UserID)
	}
	return out
}

func TestSearchRequiresProfile(t *testing.T) {
	f := newFixture(t)

	_, err := f.search.Search(context.Background(), 1, domain.Criteria{})
	require.ErrorIs(t, err, domain.ErrProfileNotSet)
}

func TestSearchHiddenProfilesNeverAppear(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		seed{userID: 1, rating: intPtr(4000), visible: true}, // requester
		seed{userID: 2, rating: intPtr(4000), visible: false},
		seed{userID: 3, rating: intPtr(4000), visible: true},
	)

	results, err := f.search.Search(context.Background(), 1, domain.Criteria{})
	require.NoError(t, err)
	require.Equal(t, []int64{3}, ids(results))
}

func TestSearchExcludesRequester(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seed{userID: 1, visible: true})

	results, err := f.search.Search(context.Background(), 1, domain.Criteria{})
	require.NoError(t, err)
	require.Empty(t, results)
}

// The worked example: requester Mid/4000 searching Ranked, exclude-own,
// ±250, no full-party requirement.
func TestSearchWorkedExample(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		seed{userID: 1, role: rolePtr(domain.RoleMid), rating: intPtr(4000), visible: true},
		// Excluded: shares the requester's role under exclude-own.
		seed{userID: 2, role: rolePtr(domain.RoleMid), rating: intPtr(4100), mode: modePtr(domain.ModeRanked), visible: true},
		// Included: different role, in band, mode matches.
		seed{userID: 3, role: rolePtr(domain.RoleCarry), rating: intPtr(4200), mode: modePtr(domain.ModeRanked), visible: true},
		// Excluded: outside [3750, 4250].
		seed{userID: 4, role: rolePtr(domain.RoleCarry), rating: intPtr(4300), mode: modePtr(domain.ModeRanked), visible: true},
	)

	criteria := domain.Criteria{
		Mode:          &domain.ModeChoice{Mode: domain.ModeRanked},
		Position:      domain.PositionFilter{Kind: domain.PositionFilterExcludeOwn},
		FullPartyOnly: boolPtr(false),
		Tolerance:     &domain.ToleranceChoice{Delta: 250},
	}

	results, err := f.search.Search(context.Background(), 1, criteria)
	require.NoError(t, err)
	require.Equal(t, []int64{3}, ids(results))
}

func TestSearchModeMatchIsCaseInsensitiveAndStrict(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		seed{userID: 1, visible: true},
		seed{userID: 2, mode: modePtr(domain.Mode("ranked")), visible: true},
		// No mode set: excluded under a concrete mode filter.
		seed{userID: 3, visible: true},
	)

	criteria := domain.Criteria{Mode: &domain.ModeChoice{Mode: domain.ModeRanked}}
	results, err := f.search.Search(context.Background(), 1, criteria)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, ids(results))

	// The Any sentinel skips the restriction entirely.
	criteria.Mode = &domain.ModeChoice{Any: true}
	results, err = f.search.Search(context.Background(), 1, criteria)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3}, ids(results))
}

func TestSearchExcludeOwnKeepsRolelessCandidates(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		seed{userID: 1, role: rolePtr(domain.RoleCarry), visible: true},
		seed{userID: 2, role: rolePtr(domain.RoleCarry), visible: true},
		seed{userID: 3, visible: true}, // no role: always kept
	)

	criteria := domain.Criteria{Position: domain.PositionFilter{Kind: domain.PositionFilterExcludeOwn}}
	results, err := f.search.Search(context.Background(), 1, criteria)
	require.NoError(t, err)
	require.Equal(t, []int64{3}, ids(results))
}

func TestSearchSpecificPosition(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		seed{userID: 1, visible: true},
		seed{userID: 2, role: rolePtr(domain.RoleHardSupport), visible: true},
		seed{userID: 3, role: rolePtr(domain.RoleCarry), visible: true},
		seed{userID: 4, visible: true},
	)

	criteria := domain.Criteria{
		Position: domain.PositionFilter{Kind: domain.PositionFilterSpecific, Role: domain.RoleHardSupport},
	}
	results, err := f.search.Search(context.Background(), 1, criteria)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, ids(results))
}

func TestSearchFullPartyOnly(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		seed{userID: 1, visible: true},
		seed{userID: 2, visible: true, fullParty: true},
		seed{userID: 3, visible: true},
	)

	criteria := domain.Criteria{FullPartyOnly: boolPtr(true)}
	results, err := f.search.Search(context.Background(), 1, criteria)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, ids(results))
}

func TestSearchZeroToleranceMatchesExactRating(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		seed{userID: 1, rating: intPtr(4000), visible: true},
		seed{userID: 2, rating: intPtr(4000), visible: true},
		seed{userID: 3, rating: intPtr(4001), visible: true},
		seed{userID: 4, rating: intPtr(3999), visible: true},
		seed{userID: 5, visible: true}, // unknown rating: excluded
	)

	criteria := domain.Criteria{Tolerance: &domain.ToleranceChoice{Delta: 0}}
	results, err := f.search.Search(context.Background(), 1, criteria)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, ids(results))
}

func TestSearchToleranceRequiresRequesterRating(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		seed{userID: 1, visible: true}, // requester has no rating
		seed{userID: 2, rating: intPtr(4000), visible: true},
	)

	criteria := domain.Criteria{Tolerance: &domain.ToleranceChoice{Delta: 100}}
	_, err := f.search.Search(context.Background(), 1, criteria)
	require.ErrorIs(t, err, domain.ErrRatingNotSet)

	// The Any sentinel does not need a requester rating.
	criteria.Tolerance = &domain.ToleranceChoice{Any: true}
	_, err = f.search.Search(context.Background(), 1, criteria)
	require.NoError(t, err)
}

func TestSearchRatingBandClampsAtZero(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		seed{userID: 1, rating: intPtr(100), visible: true},
		seed{userID: 2, rating: intPtr(0), visible: true},
		seed{userID: 3, rating: intPtr(600), visible: true},
	)

	criteria := domain.Criteria{Tolerance: &domain.ToleranceChoice{Delta: 500}}
	results, err := f.search.Search(context.Background(), 1, criteria)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3}, ids(results))
}

func TestSearchCapsAtLimit(t *testing.T) {
	f := newFixture(t)

	rows := []seed{{userID: 1, visible: true}}
	for i := int64(2); i <= 40; i++ {
		rows = append(rows, seed{userID: i, visible: true})
	}
	f.seed(t, rows...)

	results, err := f.search.Search(context.Background(), 1, domain.Criteria{})
	require.NoError(t, err)
	require.Len(t, results, 30)
	// First 30 in storage order, no ranking.
	require.Equal(t, int64(2), results[0].UserID)
	require.Equal(t, int64(31), results[29].UserID)
}

func TestSummarize(t *testing.T) {
	require.Equal(t, "no filters", Summarize(domain.Criteria{}))

	c := domain.Criteria{
		Mode:          &domain.ModeChoice{Mode: domain.ModeTurbo},
		Position:      domain.PositionFilter{Kind: domain.PositionFilterSpecific, Role: domain.RoleMid},
		FullPartyOnly: boolPtr(true),
		Tolerance:     &domain.ToleranceChoice{Delta: 300},
	}
	require.Equal(t,
		fmt.Sprintf("mode: %s, position: %s, full party only, rating: ±300", domain.ModeTurbo, domain.RoleMid),
		Summarize(c))
}
