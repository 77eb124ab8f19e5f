package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Create inserts the booking through the storage-level overlap
	// constraint. A constraint rejection caused by a concurrent insert
	// comes back as ErrSlotConflict, indistinguishable from a conflict
	// caught by the advisory check.
	Create(ctx context.Context, b *Booking) error

	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// UpdateStatus transitions the booking from one status to another as
	// a compare-and-set: the write only lands if the stored status still
	// equals from. A miss caused by a concurrent transition comes back
	// as ErrWrongState.
	UpdateStatus(ctx context.Context, id string, from, to Status) error

	// HasOverlap is the advisory overlap query: fast rejection in the
	// common non-racing case. The exclusion constraint remains the
	// source of truth.
	HasOverlap(ctx context.Context, slotID string, start, end time.Time) (bool, error)

	CountActiveForSlot(ctx context.Context, slotID string) (int, error)
}

// activeStatuses are the booking states that occupy a slot's time range.
var activeStatuses = []string{string(StatusPending), string(StatusConfirmed)}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("slot_id", "renter_id", "start_time", "end_time", "price_cents", "status", "note").
		Values(b.SlotID, b.RenterID, b.StartTime, b.EndTime, b.PriceCents, b.Status, b.Note).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			// Another request won the race between the advisory check
			// and this insert. The caller sees the same conflict either way.
			return ErrSlotConflict
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"b.id", "b.slot_id", "s.number", "s.owner_id",
		"b.renter_id", "coalesce(u.display_name, u.email)",
		"b.start_time", "b.end_time", "b.price_cents", "b.status", "b.note",
		"b.created_at", "b.updated_at",
	).
		From("public.bookings b").
		Join("public.slots s ON b.slot_id = s.id").
		Join("public.users u ON b.renter_id = u.id").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	row := r.pool.QueryRow(ctx, query, args...)

	var b Booking
	if err := row.Scan(
		&b.ID, &b.SlotID, &b.SlotNumber, &b.SlotOwnerID,
		&b.RenterID, &b.RenterName,
		&b.StartTime, &b.EndTime, &b.PriceCents, &b.Status, &b.Note,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"b.id", "b.slot_id", "s.number", "s.owner_id",
		"b.renter_id", "coalesce(u.display_name, u.email)",
		"b.start_time", "b.end_time", "b.price_cents", "b.status", "b.note",
		"b.created_at", "b.updated_at",
		"count(*) OVER() as total_count",
	).
		From("public.bookings b").
		Join("public.slots s ON b.slot_id = s.id").
		Join("public.users u ON b.renter_id = u.id")

	if filter.RenterID != "" {
		query = query.Where(squirrel.Eq{"b.renter_id": filter.RenterID})
	}
	if filter.SlotID != "" {
		query = query.Where(squirrel.Eq{"b.slot_id": filter.SlotID})
	}
	if filter.SlotOwnerID != "" {
		query = query.Where(squirrel.Eq{"s.owner_id": filter.SlotOwnerID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}

	query = query.OrderBy("b.start_time DESC")

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
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.SlotID, &b.SlotNumber, &b.SlotOwnerID,
			&b.RenterID, &b.RenterName,
			&b.StartTime, &b.EndTime, &b.PriceCents, &b.Status, &b.Note,
			&b.CreatedAt, &b.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}

	return bookings, total, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking status query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			// Moving a row back under the overlap constraint collided
			// with a booking made in the meantime.
			return ErrSlotConflict
		}
		return fmt.Errorf("update booking status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		// Either the booking is gone or a concurrent transition got
		// there first. Tell the two apart before reporting.
		var current Status
		sql, args, err := psql.Select("status").
			From("public.bookings").
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build read booking status query failed: %w", err)
		}
		if err := r.pool.QueryRow(ctx, sql, args...).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("read booking status failed: %w", err)
		}
		return ErrWrongState
	}
	return nil
}

func (r *pgxRepository) HasOverlap(ctx context.Context, slotID string, start, end time.Time) (bool, error) {
	// Half-open semantics: [s1,e1) and [s2,e2) overlap iff s1 < e2 AND s2 < e1.
	// Only pending and confirmed bookings occupy the range.
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	subQuery := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"slot_id": slotID}).
		Where(squirrel.Eq{"status": activeStatuses}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start})

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check overlap query failed: %w", err)
	}

	query := "SELECT EXISTS (" + sql + ")"

	var exists bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) CountActiveForSlot(ctx context.Context, slotID string) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("count(*)").
		From("public.bookings").
		Where(squirrel.Eq{"slot_id": slotID}).
		Where(squirrel.Eq{"status": activeStatuses}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count active bookings query failed: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active bookings failed: %w", err)
	}
	return count, nil
}
