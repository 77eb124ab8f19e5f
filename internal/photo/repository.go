package photo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, p *Photo) error
	GetByID(ctx context.Context, id string) (*Photo, error)
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, p *Photo) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.files").
		Columns("id", "user_id", "filename", "storage_path", "thumbnail_path", "content_type", "size", "created_at").
		Values(p.ID, p.UserID, p.Filename, p.StoragePath, p.ThumbnailPath, p.ContentType, p.Size, p.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create photo query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("create photo record failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Photo, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "user_id", "filename", "storage_path", "thumbnail_path",
		"content_type", "size", "created_at",
	).
		From("public.files").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get photo query failed: %w", err)
	}

	var p Photo
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.UserID, &p.Filename, &p.StoragePath, &p.ThumbnailPath,
		&p.ContentType, &p.Size, &p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get photo failed: %w", err)
	}
	return &p, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.files").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete photo query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete photo record failed: %w", err)
	}
	return nil
}
