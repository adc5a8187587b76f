package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrModelNotFound      = errors.New("model not found")
	ErrProviderNotFound   = errors.New("provider not found")
	ErrTokenPriceNotFound = errors.New("token price not found")
)

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetProvider(ctx context.Context, providerID string) (*Provider, error) {
	var p Provider

	err := r.db.QueryRow(ctx, queryGetProvider, providerID).Scan(
		&p.ID,
		&p.Name,
		&p.BaseURL,
		&p.Enabled,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProviderNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	return &p, nil
}

func (r *Repository) ListProviders(ctx context.Context) ([]Provider, error) {
	rows, err := r.db.Query(ctx, queryListProviders)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	defer rows.Close()

	providers := []Provider{}

	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.BaseURL, &p.Enabled, &p.CreatedAt); err != nil {
			return nil, err
		}

		providers = append(providers, p)
	}

	return providers, rows.Err()
}

// finds a model by provider and model name
func (r *Repository) GetModel(ctx context.Context, provider, model string) (*Model, error) {
	m, err := scanModel(r.db.QueryRow(ctx, queryGetModel, provider, model))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrModelNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	return m, nil
}

// lists models; enabledOnly hides disabled rows
func (r *Repository) ListModels(ctx context.Context, enabledOnly bool) ([]Model, error) {
	rows, err := r.db.Query(ctx, queryListModels, enabledOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	defer rows.Close()

	models := []Model{}

	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}

		models = append(models, *m)
	}

	return models, rows.Err()
}

func (r *Repository) UpdateModel(ctx context.Context, modelID string, req UpdateModelRequest) (*Model, error) {
	m, err := scanModel(r.db.QueryRow(
		ctx,
		queryUpdateModel,
		req.DisplayName,
		req.InputCost,
		req.OutputCost,
		req.SupportsTemperature,
		req.SupportsTopP,
		req.MaxTokens,
		req.Enabled,
		modelID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrModelNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to update model: %w", err)
	}

	return m, nil
}

// returns the pricing override for a model, or ErrTokenPriceNotFound
func (r *Repository) GetTokenPrice(ctx context.Context, model string) (*TokenPrice, error) {
	p, err := scanTokenPrice(r.db.QueryRow(ctx, queryGetTokenPrice, model))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenPriceNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get token price: %w", err)
	}

	return p, nil
}

func (r *Repository) ListTokenPrices(ctx context.Context) ([]TokenPrice, error) {
	rows, err := r.db.Query(ctx, queryListTokenPrices)
	if err != nil {
		return nil, fmt.Errorf("failed to list token prices: %w", err)
	}

	defer rows.Close()

	prices := []TokenPrice{}

	for rows.Next() {
		p, err := scanTokenPrice(rows)
		if err != nil {
			return nil, err
		}

		prices = append(prices, *p)
	}

	return prices, rows.Err()
}

func (r *Repository) UpsertTokenPrice(ctx context.Context, req UpsertTokenPriceRequest) (*TokenPrice, error) {
	p, err := scanTokenPrice(r.db.QueryRow(
		ctx,
		queryUpsertTokenPrice,
		req.Model,
		req.InputCostBase,
		req.OutputCostBase,
		req.InputMarginPercent,
		req.OutputMarginPercent,
		req.FXRate,
		req.Currency,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert token price: %w", err)
	}

	return p, nil
}

func (r *Repository) DeleteTokenPrice(ctx context.Context, model string) error {
	result, err := r.db.Exec(ctx, queryDeleteTokenPrice, model)
	if err != nil {
		return fmt.Errorf("failed to delete token price: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTokenPriceNotFound
	}

	return nil
}

func scanModel(row pgx.Row) (*Model, error) {
	var m Model

	err := row.Scan(
		&m.ID,
		&m.Provider,
		&m.Model,
		&m.DisplayName,
		&m.InputCost,
		&m.OutputCost,
		&m.SupportsTemperature,
		&m.SupportsTopP,
		&m.MaxTokens,
		&m.Enabled,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func scanTokenPrice(row pgx.Row) (*TokenPrice, error) {
	var p TokenPrice

	err := row.Scan(
		&p.ID,
		&p.Model,
		&p.InputCostBase,
		&p.OutputCostBase,
		&p.InputMarginPercent,
		&p.OutputMarginPercent,
		&p.FXRate,
		&p.Currency,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
