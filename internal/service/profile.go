package service

import (
	"context"
	"errors"
	"fmt"

	"partyfinder/internal/domain"
	"partyfinder/internal/repository"

	"github.com/rs/zerolog"
)

// ProfileService owns profile reads and field-level edits. Edits commit
// immediately on acceptance, one field at a time; there is no staged commit
// across a flow.
type ProfileService struct {
	repo   *repository.ProfileRepository
	logger zerolog.Logger
}

func NewProfileService(repo *repository.ProfileRepository, logger zerolog.Logger) *ProfileService {
	return &ProfileService{repo: repo, logger: logger}
}

func (s *ProfileService) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	return s.repo.Get(ctx, userID)
}

func (s *ProfileService) SetRole(ctx context.Context, userID int64, handle string, role domain.Role) error {
	s.logger.Info().Int64("user_id", userID).Str("role", string(role)).Msg("setting role")
	return s.repo.Upsert(ctx, userID, domain.ProfilePatch{Role: &role, Handle: &handle})
}

func (s *ProfileService) SetMode(ctx context.Context, userID int64, handle string, mode domain.Mode) error {
	s.logger.Info().Int64("user_id", userID).Str("mode", string(mode)).Msg("setting mode")
	return s.repo.Upsert(ctx, userID, domain.ProfilePatch{Mode: &mode, Handle: &handle})
}

// SetRating validates the range before committing.
func (s *ProfileService) SetRating(ctx context.Context, userID int64, handle string, rating int) error {
	if rating < domain.RatingMin || rating > domain.RatingMax {
		return domain.NewValidationError(
			fmt.Sprintf("rating must be between %d and %d", domain.RatingMin, domain.RatingMax))
	}
	s.logger.Info().Int64("user_id", userID).Int("rating", rating).Msg("setting rating")
	return s.repo.Upsert(ctx, userID, domain.ProfilePatch{Rating: &rating, Handle: &handle})
}

// ToggleVisible flips discoverability and returns the new value.
func (s *ProfileService) ToggleVisible(ctx context.Context, userID int64, handle string) (bool, error) {
	return s.toggle(ctx, userID, handle, func(p *domain.Profile) (domain.ProfilePatch, bool) {
		next := !p.Visible
		return domain.ProfilePatch{Visible: &next}, next
	})
}

// ToggleFullParty flips the wants-full-party flag and returns the new value.
func (s *ProfileService) ToggleFullParty(ctx context.Context, userID int64, handle string) (bool, error) {
	return s.toggle(ctx, userID, handle, func(p *domain.Profile) (domain.ProfilePatch, bool) {
		next := !p.WantsFullParty
		return domain.ProfilePatch{WantsFullParty: &next}, next
	})
}

func (s *ProfileService) toggle(ctx context.Context, userID int64, handle string, flip func(*domain.Profile) (domain.ProfilePatch, bool)) (bool, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		p = &domain.Profile{UserID: userID}
	} else if err != nil {
		return false, err
	}

	patch, next := flip(p)
	patch.Handle = &handle
	if err := s.repo.Upsert(ctx, userID, patch); err != nil {
		return false, err
	}
	return next, nil
}
