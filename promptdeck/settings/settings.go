package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidReferral = errors.New("referral percentages and caps must not be negative")

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) General(ctx context.Context) (General, error) {
	s := DefaultGeneral()
	err := r.get(ctx, KeyGeneral, &s)

	return s, err
}

func (r *Repository) Referral(ctx context.Context) (Referral, error) {
	s := DefaultReferral()
	err := r.get(ctx, KeyReferral, &s)

	return s, err
}

// stored SMTP overrides; ok is false when none were saved
func (r *Repository) SMTP(ctx context.Context) (s SMTP, ok bool, err error) {
	err = r.get(ctx, KeySMTP, &s)
	return s, s.Host != "", err
}

func (r *Repository) SaveGeneral(ctx context.Context, s General, actorID string) error {
	return r.put(ctx, KeyGeneral, s, actorID)
}

func (r *Repository) SaveReferral(ctx context.Context, s Referral, actorID string) error {
	if s.DefaultCommissionPercent.IsNegative() || s.MaxEarningsPerReferrer.IsNegative() {
		return ErrInvalidReferral
	}

	return r.put(ctx, KeyReferral, s, actorID)
}

func (r *Repository) SaveSMTP(ctx context.Context, s SMTP, actorID string) error {
	return r.put(ctx, KeySMTP, s, actorID)
}

// decodes the stored JSON over dst; a missing row leaves dst untouched
func (r *Repository) get(ctx context.Context, key string, dst any) error {
	var raw []byte

	err := r.db.QueryRow(ctx, queryGetSetting, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to load %s settings: %w", key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("corrupt %s settings: %w", key, err)
	}

	return nil
}

func (r *Repository) put(ctx context.Context, key string, v any, actorID string) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s settings: %w", key, err)
	}

	if _, err := r.db.Exec(ctx, queryPutSetting, key, raw, actorID); err != nil {
		return fmt.Errorf("failed to save %s settings: %w", key, err)
	}

	return nil
}
