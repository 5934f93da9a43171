package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// CreateIfFree atomically checks the requested slot against all ACTIVE
	// bookings for the room and date, and inserts the booking only if no
	// overlap exists. Returns ErrTimeSlotUnavailable on conflict and
	// ErrRoomNotFound if the room row is gone.
	CreateIfFree(ctx context.Context, b *Booking) error

	GetByID(ctx context.Context, id string) (*Booking, error)

	// ListActiveForRoomDate returns the ACTIVE bookings for (room, date),
	// ordered by start time.
	ListActiveForRoomDate(ctx context.Context, roomID string, date time.Time) ([]*Booking, error)

	// ListActiveForUser returns the requester's ACTIVE bookings, optionally
	// narrowed by date and/or room.
	ListActiveForUser(ctx context.Context, email string, f Filter) ([]*Booking, error)

	// UpdateStatus persists a status transition. The update only applies while
	// the row is still ACTIVE, so a concurrent transition loses cleanly with
	// ErrNotActive.
	UpdateStatus(ctx context.Context, b *Booking) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const bookingColumns = `b.id, b.room_id, r.name, b.user_email, b.user_name,
	b.booking_date, b.start_time, b.end_time, b.duration_minutes, b.status,
	b.created_at, b.completed_at`

func (r *pgxRepository) CreateIfFree(ctx context.Context, b *Booking) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin create booking tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the room row for the duration of the check-and-insert. Two
	// concurrent creates for the same room serialize here, so the overlap
	// check below always sees the winner's insert.
	var roomID string
	err = tx.QueryRow(ctx, `SELECT id FROM public.rooms WHERE id = $1 FOR UPDATE`, b.RoomID).Scan(&roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("lock room failed: %w", err)
	}

	existing, err := listActiveForRoomDate(ctx, tx, b.RoomID, b.Date)
	if err != nil {
		return err
	}
	if HasConflict(existing, b.StartTime, b.EndTime) {
		return ErrTimeSlotUnavailable
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("room_id", "user_email", "user_name", "booking_date",
			"start_time", "end_time", "duration_minutes", "status").
		Values(b.RoomID, b.UserEmail, b.UserName, b.Date,
			b.StartTime, b.EndTime, b.DurationMinutes, b.Status).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt); err != nil {
		return fmt.Errorf("create booking failed: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns).
		From("public.bookings b").
		Join("public.rooms r ON b.room_id = r.id").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	row := r.pool.QueryRow(ctx, query, args...)

	var b Booking
	if err := row.Scan(
		&b.ID, &b.RoomID, &b.RoomName, &b.UserEmail, &b.UserName,
		&b.Date, &b.StartTime, &b.EndTime, &b.DurationMinutes, &b.Status,
		&b.CreatedAt, &b.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) ListActiveForRoomDate(ctx context.Context, roomID string, date time.Time) ([]*Booking, error) {
	return listActiveForRoomDate(ctx, r.pool, roomID, date)
}

func listActiveForRoomDate(ctx context.Context, q querier, roomID string, date time.Time) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns).
		From("public.bookings b").
		Join("public.rooms r ON b.room_id = r.id").
		Where(squirrel.Eq{"b.room_id": roomID}).
		Where(squirrel.Eq{"b.booking_date": date}).
		Where(squirrel.Eq{"b.status": StatusActive}).
		OrderBy("b.start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build room bookings query failed: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list room bookings failed: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

func (r *pgxRepository) ListActiveForUser(ctx context.Context, email string, f Filter) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(bookingColumns).
		From("public.bookings b").
		Join("public.rooms r ON b.room_id = r.id").
		Where(squirrel.Eq{"b.user_email": email}).
		Where(squirrel.Eq{"b.status": StatusActive})

	if f.Date != nil {
		query = query.Where(squirrel.Eq{"b.booking_date": *f.Date})
	}
	if f.RoomID != "" {
		query = query.Where(squirrel.Eq{"b.room_id": f.RoomID})
	}

	sql, args, err := query.
		OrderBy("b.booking_date DESC", "b.start_time DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list user bookings failed: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", b.Status).
		Set("completed_at", b.CompletedAt).
		Where(squirrel.Eq{"id": b.ID}).
		Where(squirrel.Eq{"status": StatusActive}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		// Row missing or no longer active; either way the transition is invalid.
		return ErrNotActive
	}
	return nil
}

func scanBookings(rows pgx.Rows) ([]*Booking, error) {
	var bookings []*Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.RoomID, &b.RoomName, &b.UserEmail, &b.UserName,
			&b.Date, &b.StartTime, &b.EndTime, &b.DurationMinutes, &b.Status,
			&b.CreatedAt, &b.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}
	return bookings, nil
}
