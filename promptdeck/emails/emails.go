package emails

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTemplateNotFound = errors.New("email template not found")

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetTemplate(ctx context.Context, id string) (*Template, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, queryGetTemplate, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get email template: %w", err)
	}

	return t, nil
}

func (r *Repository) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := r.db.Query(ctx, queryListTemplates)
	if err != nil {
		return nil, fmt.Errorf("failed to list email templates: %w", err)
	}

	defer rows.Close()

	list := []Template{}

	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}

		list = append(list, *t)
	}

	return list, rows.Err()
}

func (r *Repository) CreateTemplate(ctx context.Context, req UpsertTemplateRequest) (*Template, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, queryCreateTemplate, req.Name, req.Subject, req.HTMLBody, req.TextBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create email template: %w", err)
	}

	return t, nil
}

func (r *Repository) UpdateTemplate(ctx context.Context, id string, req UpsertTemplateRequest) (*Template, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, queryUpdateTemplate, req.Name, req.Subject, req.HTMLBody, req.TextBody, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to update email template: %w", err)
	}

	return t, nil
}

func (r *Repository) DeleteTemplate(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, queryDeleteTemplate, id)
	if err != nil {
		return fmt.Errorf("failed to delete email template: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}

	return nil
}

func (r *Repository) InsertLog(ctx context.Context, l Log) error {
	if _, err := r.db.Exec(ctx, queryInsertLog, l.TemplateID, l.To, l.Subject, l.Status, l.MessageID, l.Error); err != nil {
		return fmt.Errorf("failed to write email log: %w", err)
	}

	return nil
}

func (r *Repository) ListLogs(ctx context.Context, limit, offset int) ([]Log, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, queryCountLogs).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count email logs: %w", err)
	}

	rows, err := r.db.Query(ctx, queryListLogs, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list email logs: %w", err)
	}

	defer rows.Close()

	logs := []Log{}

	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.TemplateID, &l.To, &l.Subject, &l.Status, &l.MessageID, &l.Error, &l.CreatedAt); err != nil {
			return nil, 0, err
		}

		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template

	if err := row.Scan(&t.ID, &t.Name, &t.Subject, &t.HTMLBody, &t.TextBody, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	return &t, nil
}
