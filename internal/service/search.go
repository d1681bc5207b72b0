package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"partyfinder/internal/constants"
	"partyfinder/internal/domain"
	"partyfinder/internal/repository"

	"github.com/rs/zerolog"
)

// SearchService is the match-filter engine: it turns partial criteria into a
// selection over the profile store, as successive restrictions over all
// visible profiles excluding the requester's own.
type SearchService struct {
	profiles  *repository.ProfileRepository
	searchLog *repository.SearchLogRepository
	logger    zerolog.Logger
}

func NewSearchService(profiles *repository.ProfileRepository, searchLog *repository.SearchLogRepository, logger zerolog.Logger) *SearchService {
	return &SearchService{profiles: profiles, searchLog: searchLog, logger: logger}
}

// Search returns up to 30 matching profiles in storage order. No ranking: the
// first matches win. The requester must have a profile; a rating-band
// restriction additionally requires the requester's rating to be known.
func (s *SearchService) Search(ctx context.Context, requesterID int64, criteria domain.Criteria) ([]domain.Profile, error) {
	requester, err := s.profiles.Get(ctx, requesterID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return nil, domain.ErrProfileNotSet
	}
	if err != nil {
		return nil, err
	}

	if criteria.Tolerance != nil && !criteria.Tolerance.Any && requester.Rating == nil {
		return nil, domain.ErrRatingNotSet
	}

	candidates, err := s.profiles.ListVisible(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	var results []domain.Profile
	for _, p := range candidates {
		if !matchPosition(requester, &p, criteria.Position) {
			continue
		}
		if !matchMode(&p, criteria.Mode) {
			continue
		}
		if criteria.FullPartyOnly != nil && *criteria.FullPartyOnly && !p.WantsFullParty {
			continue
		}
		if !matchRating(requester, &p, criteria.Tolerance) {
			continue
		}
		results = append(results, p)
		if len(results) == constants.SearchResultLimit {
			break
		}
	}

	s.logger.Info().
		Int64("requester_id", requesterID).
		Int("candidates", len(candidates)).
		Int("results", len(results)).
		Msg("search executed")

	// Advisory log; a failure here must not fail the search.
	if err := s.searchLog.Record(ctx, requesterID, Summarize(criteria), len(results)); err != nil {
		s.logger.Warn().Err(err).Int64("requester_id", requesterID).Msg("failed to log search")
	}

	return results, nil
}

// RecentSearches returns the requester's latest recorded searches.
func (s *SearchService) RecentSearches(ctx context.Context, userID int64) ([]domain.SearchRecord, error) {
	return s.searchLog.RecentByUser(ctx, userID, constants.RecentSearchLimit)
}

func matchPosition(requester, candidate *domain.Profile, f domain.PositionFilter) bool {
	switch f.Kind {
	case domain.PositionFilterSpecific:
		return candidate.Role != nil && *candidate.Role == f.Role
	case domain.PositionFilterExcludeOwn:
		// A candidate with no declared role is never excluded.
		if requester.Role == nil || candidate.Role == nil {
			return true
		}
		return *candidate.Role != *requester.Role
	default:
		return true
	}
}

func matchMode(candidate *domain.Profile, choice *domain.ModeChoice) bool {
	if choice == nil || choice.Any {
		return true
	}
	// Strict match: a candidate with no mode set does not match any concrete
	// mode filter. Asymmetric with the position rule above, deliberately.
	if candidate.Mode == nil {
		return false
	}
	return strings.EqualFold(string(*candidate.Mode), string(choice.Mode))
}

func matchRating(requester, candidate *domain.Profile, choice *domain.ToleranceChoice) bool {
	if choice == nil || choice.Any {
		return true
	}
	if candidate.Rating == nil {
		return false
	}
	lo := *requester.Rating - choice.Delta
	if lo < domain.RatingMin {
		lo = domain.RatingMin
	}
	hi := *requester.Rating + choice.Delta
	return *candidate.Rating >= lo && *candidate.Rating <= hi
}

// Summarize renders criteria as a short human-readable line for the search log.
func Summarize(c domain.Criteria) string {
	var parts []string
	if c.Mode != nil {
		if c.Mode.Any {
			parts = append(parts, "mode: any")
		} else {
			parts = append(parts, fmt.Sprintf("mode: %s", c.Mode.Mode))
		}
	}
	switch c.Position.Kind {
	case domain.PositionFilterExcludeOwn:
		parts = append(parts, "position: not mine")
	case domain.PositionFilterSpecific:
		parts = append(parts, fmt.Sprintf("position: %s", c.Position.Role))
	}
	if c.FullPartyOnly != nil && *c.FullPartyOnly {
		parts = append(parts, "full party only")
	}
	if c.Tolerance != nil {
		if c.Tolerance.Any {
			parts = append(parts, "rating: any")
		} else {
			parts = append(parts, fmt.Sprintf("rating: ±%d", c.Tolerance.Delta))
		}
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, ", ")
}
