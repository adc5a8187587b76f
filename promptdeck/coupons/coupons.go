package coupons

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponUnavailable = errors.New("coupon expired or exhausted")
	ErrCouponExists      = errors.New("coupon code already exists")
)

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	c, err := scanCoupon(r.db.QueryRow(ctx, queryGetByCode, NormalizeCode(code)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCouponNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	return c, nil
}

func (r *Repository) List(ctx context.Context) ([]Coupon, error) {
	rows, err := r.db.Query(ctx, queryList)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	defer rows.Close()

	list := []Coupon{}

	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}

		list = append(list, *c)
	}

	return list, rows.Err()
}

func (r *Repository) Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error) {
	c, err := scanCoupon(r.db.QueryRow(
		ctx,
		queryCreate,
		NormalizeCode(req.Code),
		req.Type,
		req.Value,
		req.MaxUses,
		req.ExpiresAt,
		req.Scope,
	))

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrCouponExists
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	return c, nil
}

func (r *Repository) Update(ctx context.Context, id string, req UpdateCouponRequest) (*Coupon, error) {
	c, err := scanCoupon(r.db.QueryRow(ctx, queryUpdate, req.Value, req.MaxUses, req.ExpiresAt, req.Scope, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCouponNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}

	return c, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, queryDelete, id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrCouponNotFound
	}

	return nil
}

// consumes one use of the coupon if it is still active
func Redeem(ctx context.Context, db Querier, code string) (*Coupon, error) {
	c, err := scanCoupon(db.QueryRow(ctx, queryRedeem, NormalizeCode(code)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCouponUnavailable
	}

	if err != nil {
		return nil, fmt.Errorf("failed to redeem coupon: %w", err)
	}

	return c, nil
}

func scanCoupon(row pgx.Row) (*Coupon, error) {
	var c Coupon

	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Type,
		&c.Value,
		&c.MaxUses,
		&c.UsedCount,
		&c.ExpiresAt,
		&c.Scope,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &c, nil
}
