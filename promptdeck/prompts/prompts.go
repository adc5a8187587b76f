package prompts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPromptNotFound = errors.New("prompt not found")
	ErrUnknownStat    = errors.New("unknown prompt stat")
)

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// loads a prompt; viewerID (may be empty) decides the favorite flag
func (r *Repository) Get(ctx context.Context, promptID, viewerID string) (*Prompt, error) {
	p, err := scanPrompt(r.db.QueryRow(ctx, queryGet, promptID, viewerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPromptNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}

	return p, nil
}

// lists system prompts plus the viewer's own, optionally filtered by language
func (r *Repository) ListVisible(ctx context.Context, viewerID, language string, limit, offset int) ([]Prompt, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, queryCountVisible, language, viewerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count prompts: %w", err)
	}

	rows, err := r.db.Query(ctx, queryListVisible, language, viewerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list prompts: %w", err)
	}

	defer rows.Close()

	list := []Prompt{}

	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, 0, err
		}

		list = append(list, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *Repository) Create(ctx context.Context, userID string, req CreatePromptRequest) (*Prompt, error) {
	var promptID string

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(
			ctx,
			queryCreate,
			userID,
			req.Title,
			req.Description,
			req.Content,
			req.Language,
			req.Category,
		).Scan(&promptID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, queryInsertStats, promptID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}

	return r.Get(ctx, promptID, userID)
}

// flips the viewer's favorite flag and returns the stored value
func (r *Repository) ToggleFavorite(ctx context.Context, promptID, userID string) (bool, error) {
	var favorite bool

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var current bool
		if err := tx.QueryRow(ctx, queryIsFavorite, promptID, userID).Scan(&current); err != nil {
			return err
		}

		query := queryAddFavorite
		if current {
			query = queryRemoveFavorite
		}

		if _, err := tx.Exec(ctx, query, promptID, userID); err != nil {
			return err
		}

		favorite = !current
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}

	return favorite, nil
}

// bumps a single engagement counter
func (r *Repository) IncrementStat(ctx context.Context, promptID string, stat Stat) error {
	var query string

	switch stat {
	case StatVisit:
		query = queryIncrementVisits
	case StatCopy:
		query = queryIncrementCopies
	default:
		return fmt.Errorf("%w: %s", ErrUnknownStat, stat)
	}

	if _, err := r.db.Exec(ctx, query, promptID); err != nil {
		return fmt.Errorf("failed to increment %s: %w", stat, err)
	}

	return nil
}

func (r *Repository) GetStats(ctx context.Context, promptID string) (*Stats, error) {
	var s Stats

	err := r.db.QueryRow(ctx, queryGetStats, promptID).Scan(
		&s.PromptID,
		&s.Visits,
		&s.Copies,
		&s.Executions,
		&s.Improvements,
		&s.Translations,
		&s.CTR,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &Stats{PromptID: promptID}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get prompt stats: %w", err)
	}

	return &s, nil
}

// appends a version and makes it the prompt's current content in one transaction
func (r *Repository) SaveVersion(ctx context.Context, nv NewVersion) (*Version, error) {
	var saved Version

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var current int
		if err := tx.QueryRow(ctx, queryLockPromptVersion, nv.PromptID).Scan(&current); err != nil {
			return err
		}

		next := current + 1

		if err := tx.QueryRow(
			ctx,
			queryInsertVersion,
			nv.PromptID,
			next,
			nv.Content,
			nv.Language,
			nv.ChangeType,
			nv.CreatedBy,
		).Scan(
			&saved.ID,
			&saved.PromptID,
			&saved.Version,
			&saved.Content,
			&saved.Language,
			&saved.ChangeType,
			&saved.CreatedBy,
			&saved.CreatedAt,
		); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, queryApplyVersion, nv.Content, nv.Language, next, nv.PromptID); err != nil {
			return err
		}

		statQuery := queryIncrementImprovements
		if nv.ChangeType == ChangeTranslation {
			statQuery = queryIncrementTranslations
		}

		_, err := tx.Exec(ctx, statQuery, nv.PromptID)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPromptNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to save prompt version: %w", err)
	}

	return &saved, nil
}

func (r *Repository) ListVersions(ctx context.Context, promptID string) ([]Version, error) {
	rows, err := r.db.Query(ctx, queryListVersions, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	defer rows.Close()

	versions := []Version{}

	for rows.Next() {
		var v Version
		if err := rows.Scan(
			&v.ID,
			&v.PromptID,
			&v.Version,
			&v.Content,
			&v.Language,
			&v.ChangeType,
			&v.CreatedBy,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}

		versions = append(versions, v)
	}

	return versions, rows.Err()
}

func scanPrompt(row pgx.Row) (*Prompt, error) {
	var p Prompt

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.IsSystem,
		&p.Title,
		&p.Description,
		&p.Content,
		&p.Language,
		&p.Category,
		&p.Version,
		&p.IsFavorite,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
