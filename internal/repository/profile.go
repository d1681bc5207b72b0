package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"partyfinder/internal/domain"

	"github.com/rs/zerolog"
)

type ProfileRepository struct {
	db     *sql.DB
	logger zerolog.Logger

	// writeMu serializes read-merge-write cycles so racing upserts of the
	// same row commit whole merged rows, never interleaved field writes.
	writeMu sync.Mutex
}

func NewProfileRepository(db *sql.DB, logger zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, logger: logger}
}

func (r *ProfileRepository) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, role, mode, rating, handle, visible, wants_full_party, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get profile")
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// Upsert merges only the fields set in patch into the user's row, creating the
// row if absent. The read and write happen inside one transaction so racing
// upserts of the same row serialize on a full merged row rather than
// interleaving per-field writes.
func (r *ProfileRepository) Upsert(ctx context.Context, userID int64, patch domain.ProfilePatch) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT user_id, role, mode, rating, handle, visible, wants_full_party, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID)

	now := time.Now().UTC()
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		p = &domain.Profile{UserID: userID, CreatedAt: now}
	} else if err != nil {
		return fmt.Errorf("failed to read profile for merge: %w", err)
	}

	applyPatch(p, patch)
	p.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, role, mode, rating, handle, visible, wants_full_party, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			role = excluded.role,
			mode = excluded.mode,
			rating = excluded.rating,
			handle = excluded.handle,
			visible = excluded.visible,
			wants_full_party = excluded.wants_full_party,
			updated_at = excluded.updated_at`,
		p.UserID, nullRole(p.Role), nullMode(p.Mode), nullInt(p.Rating),
		p.Handle, p.Visible, p.WantsFullParty, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to upsert profile")
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return tx.Commit()
}

// ListVisible returns discoverable profiles in stable user_id order, skipping
// the requester's own row.
func (r *ProfileRepository) ListVisible(ctx context.Context, excludeUserID int64) ([]domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, role, mode, rating, handle, visible, wants_full_party, created_at, updated_at
		FROM profiles
		WHERE visible = 1 AND user_id != ?
		ORDER BY user_id`, excludeUserID)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list visible profiles")
		return nil, fmt.Errorf("failed to list visible profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// Counts returns total and visible profile counts for the stats endpoint.
func (r *ProfileRepository) Counts(ctx context.Context) (total, visible int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(visible), 0) FROM profiles`).Scan(&total, &visible)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return total, visible, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var (
		p      domain.Profile
		role   sql.NullString
		mode   sql.NullString
		rating sql.NullInt64
	)
	err := row.Scan(&p.UserID, &role, &mode, &rating, &p.Handle,
		&p.Visible, &p.WantsFullParty, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if role.Valid {
		v := domain.Role(role.String)
		p.Role = &v
	}
	if mode.Valid {
		v := domain.Mode(mode.String)
		p.Mode = &v
	}
	if rating.Valid {
		v := int(rating.Int64)
		p.Rating = &v
	}
	return &p, nil
}

func applyPatch(p *domain.Profile, patch domain.ProfilePatch) {
	if patch.Role != nil {
		p.Role = patch.Role
	}
	if patch.Mode != nil {
		p.Mode = patch.Mode
	}
	if patch.Rating != nil {
		p.Rating = patch.Rating
	}
	if patch.Handle != nil {
		p.Handle = *patch.Handle
	}
	if patch.Visible != nil {
		p.Visible = *patch.Visible
	}
	if patch.WantsFullParty != nil {
		p.WantsFullParty = *patch.WantsFullParty
	}
}

func nullRole(r *domain.Role) any {
	if r == nil {
		return nil
	}
	return string(*r)
}

func nullMode(m *domain.Mode) any {
	if m == nil {
		return nil
	}
	return string(*m)
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
