package affiliates

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAffiliateNotFound = errors.New("affiliate not found")
	ErrAlreadyAffiliate  = errors.New("user is already an affiliate")
)

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Affiliate, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, queryCount).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count affiliates: %w", err)
	}

	rows, err := r.db.Query(ctx, queryList, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list affiliates: %w", err)
	}

	defer rows.Close()

	list := []Affiliate{}

	for rows.Next() {
		a, err := scanAffiliate(rows)
		if err != nil {
			return nil, 0, err
		}

		list = append(list, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *Repository) GetByUser(ctx context.Context, userID string) (*Affiliate, error) {
	a, err := scanAffiliate(r.db.QueryRow(ctx, queryGetByUser, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAffiliateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get affiliate: %w", err)
	}

	return a, nil
}

func (r *Repository) Create(ctx context.Context, req CreateAffiliateRequest) (*Affiliate, error) {
	a, err := scanAffiliate(r.db.QueryRow(ctx, queryCreate, req.UserID, req.CommissionPercent))

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrAlreadyAffiliate
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create affiliate: %w", err)
	}

	return a, nil
}

func (r *Repository) Update(ctx context.Context, id string, req UpdateAffiliateRequest) (*Affiliate, error) {
	a, err := scanAffiliate(r.db.QueryRow(ctx, queryUpdate, req.CommissionPercent, req.Active, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAffiliateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to update affiliate: %w", err)
	}

	return a, nil
}

func scanAffiliate(row pgx.Row) (*Affiliate, error) {
	var a Affiliate

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Email,
		&a.CommissionPercent,
		&a.TotalReferrals,
		&a.TotalEarnings,
		&a.Active,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}
