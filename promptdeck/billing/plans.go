package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrPackageNotFound   = errors.New("token package not found")
	ErrPromotionNotFound = errors.New("promotion not found")
)

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error) {
	rows, err := r.db.Query(ctx, queryListPlans, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	defer rows.Close()

	plans := []Plan{}

	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}

		plans = append(plans, *p)
	}

	return plans, rows.Err()
}

func (r *Repository) GetPlan(ctx context.Context, id string) (*Plan, error) {
	p, err := scanPlan(r.db.QueryRow(ctx, queryGetPlan, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return p, nil
}

func (r *Repository) CreatePlan(ctx context.Context, req UpsertPlanRequest) (*Plan, error) {
	p, err := scanPlan(r.db.QueryRow(
		ctx,
		queryCreatePlan,
		req.Name,
		req.Price,
		req.Currency,
		req.TokensIncluded,
		req.OveragePrice,
		req.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	return p, nil
}

func (r *Repository) UpdatePlan(ctx context.Context, id string, req UpsertPlanRequest) (*Plan, error) {
	p, err := scanPlan(r.db.QueryRow(
		ctx,
		queryUpdatePlan,
		req.Name,
		req.Price,
		req.Currency,
		req.TokensIncluded,
		req.OveragePrice,
		req.Active,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	return p, nil
}

func (r *Repository) ListOrganizationPlans(ctx context.Context) ([]OrganizationPlan, error) {
	rows, err := r.db.Query(ctx, queryListOrganizationPlans)
	if err != nil {
		return nil, fmt.Errorf("failed to list organization plans: %w", err)
	}

	defer rows.Close()

	plans := []OrganizationPlan{}

	for rows.Next() {
		var p OrganizationPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.PricePerUser, &p.TokensPerUser, &p.MinTeamSize); err != nil {
			return nil, err
		}

		plans = append(plans, p)
	}

	return plans, rows.Err()
}

func (r *Repository) ListPackages(ctx context.Context) ([]TokenPackage, error) {
	rows, err := r.db.Query(ctx, queryListPackages)
	if err != nil {
		return nil, fmt.Errorf("failed to list token packages: %w", err)
	}

	defer rows.Close()

	packages := []TokenPackage{}

	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}

		packages = append(packages, *p)
	}

	return packages, rows.Err()
}

func (r *Repository) GetPackage(ctx context.Context, id string) (*TokenPackage, error) {
	p, err := scanPackage(r.db.QueryRow(ctx, queryGetPackage, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPackageNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get token package: %w", err)
	}

	return p, nil
}

// the best promotion running at now, or nil
func (r *Repository) ActivePromotion(ctx context.Context, now time.Time) (*Promotion, error) {
	p, err := scanPromotion(r.db.QueryRow(ctx, queryActivePromotion, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load promotion: %w", err)
	}

	return p, nil
}

func (r *Repository) ListPromotions(ctx context.Context) ([]Promotion, error) {
	rows, err := r.db.Query(ctx, queryListPromotions)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}

	defer rows.Close()

	promos := []Promotion{}

	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}

		promos = append(promos, *p)
	}

	return promos, rows.Err()
}

func (r *Repository) CreatePromotion(ctx context.Context, req CreatePromotionRequest) (*Promotion, error) {
	p, err := scanPromotion(r.db.QueryRow(ctx, queryCreatePromotion, req.Name, req.DiscountPercent, req.StartsAt, req.EndsAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}

	return p, nil
}

func (r *Repository) DeactivatePromotion(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, queryDeactivatePromotion, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate promotion: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrPromotionNotFound
	}

	return nil
}

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan

	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Currency, &p.TokensIncluded, &p.OveragePrice, &p.Active); err != nil {
		return nil, err
	}

	return &p, nil
}

func scanPackage(row pgx.Row) (*TokenPackage, error) {
	var p TokenPackage

	if err := row.Scan(&p.ID, &p.Name, &p.Tokens, &p.Price, &p.Currency, &p.Active); err != nil {
		return nil, err
	}

	return &p, nil
}

func scanPromotion(row pgx.Row) (*Promotion, error) {
	var p Promotion

	if err := row.Scan(&p.ID, &p.Name, &p.DiscountPercent, &p.StartsAt, &p.EndsAt, &p.Active); err != nil {
		return nil, err
	}

	return &p, nil
}
