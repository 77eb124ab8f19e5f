package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id string) (*Slot, error)
	List(ctx context.Context, filter Filter) ([]*Slot, int, error)
	Update(ctx context.Context, s *Slot) error
	SetPhotoID(ctx context.Context, id string, photoID *string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, s *Slot) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.slots").
		Columns("owner_id", "number", "category", "rate_cents_per_hour", "status").
		Values(s.OwnerID, s.Number, s.Category, s.RateCentsPerHour, s.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create slot query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Slot, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "owner_id", "number", "category", "rate_cents_per_hour",
		"status", "photo_id", "created_at", "updated_at",
	).
		From("public.slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get slot query failed: %w", err)
	}

	row := r.pool.QueryRow(ctx, query, args...)

	var s Slot
	if err := row.Scan(
		&s.ID, &s.OwnerID, &s.Number, &s.Category, &s.RateCentsPerHour,
		&s.Status, &s.PhotoID, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get slot failed: %w", err)
	}
	return &s, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Slot, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "owner_id", "number", "category", "rate_cents_per_hour",
		"status", "photo_id", "created_at", "updated_at",
		"count(*) OVER() as total_count",
	).
		From("public.slots")

	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"owner_id": filter.OwnerID})
	}
	if filter.Category != "" {
		query = query.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	query = query.OrderBy("created_at DESC")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list slots query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list slots failed: %w", err)
	}
	defer rows.Close()

	var slots []*Slot
	var total int

	for rows.Next() {
		var s Slot
		if err := rows.Scan(
			&s.ID, &s.OwnerID, &s.Number, &s.Category, &s.RateCentsPerHour,
			&s.Status, &s.PhotoID, &s.CreatedAt, &s.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan slot failed: %w", err)
		}
		slots = append(slots, &s)
	}

	return slots, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, s *Slot) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.slots").
		Set("number", s.Number).
		Set("category", s.Category).
		Set("rate_cents_per_hour", s.RateCentsPerHour).
		Set("status", s.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update slot query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update slot failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) SetPhotoID(ctx context.Context, id string, photoID *string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.slots").
		Set("photo_id", photoID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set slot photo query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set slot photo failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
