package claim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const claimColumns = `id, room_id, owner_id, start_time, end_time, status, hold_expiry,
agenda, party_size, COALESCE(idempotency_key, ''), created_at, updated_at`

type Repository interface {
	// WithTx executes fn inside a single database transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id string) (*Claim, error)
	// GetForUpdate loads a claim and row-locks it for the rest of the transaction.
	GetForUpdate(ctx context.Context, id string) (*Claim, error)
	List(ctx context.Context, filter Filter) ([]*Claim, int, error)
	// ListActive returns the claims that block slots in the room right now:
	// confirmed claims plus unexpired holds.
	ListActive(ctx context.Context, roomID string, now time.Time) ([]*Claim, error)

	// HasOverlap checks whether any active claim for the room intersects
	// [start, end). excludeClaimID lets a claim be re-validated against
	// everything but itself. This is the single overlap authority; both the
	// hold and confirm paths call it rather than re-deriving interval math.
	HasOverlap(ctx context.Context, roomID string, start, end time.Time, excludeClaimID string, now time.Time) (bool, error)

	SetConfirmed(ctx context.Context, id, agenda string, partySize int) error
	SetStatus(ctx context.Context, id string, status Status) error

	// ExpireStale flips timed-out holds to expired and returns them so the
	// caller can publish change events. Empty roomID sweeps every room.
	ExpireStale(ctx context.Context, roomID string, now time.Time) ([]*Claim, error)

	FindByIdempotencyKey(ctx context.Context, ownerID, key string) (*Claim, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *pgxRepository) Create(ctx context.Context, c *Claim) error {
	const stmt = `
INSERT INTO public.claims (room_id, owner_id, start_time, end_time, status, hold_expiry, agenda, party_size, idempotency_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
RETURNING id, created_at, updated_at`

	err := r.queryRow(ctx, stmt,
		c.RoomID, c.OwnerID, c.StartTime, c.EndTime, c.Status,
		c.HoldExpiry, c.Agenda, c.PartySize, c.IdempotencyKey,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		// The claims table carries an exclusion constraint over
		// (room_id, time range) for active rows. A concurrent committer
		// racing for the same interval trips it; that loser must see a
		// conflict, not a violated invariant.
		if isExclusionViolation(err) {
			return ErrSlotTaken
		}
		if isUniqueViolation(err) {
			return ErrIdempotencyConflict
		}
		return fmt.Errorf("create claim failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM public.claims WHERE id = $1`
	return r.scanOne(r.queryRow(ctx, query, id))
}

func (r *pgxRepository) GetForUpdate(ctx context.Context, id string) (*Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM public.claims WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.queryRow(ctx, query, id))
}

func (r *pgxRepository) scanOne(row pgx.Row) (*Claim, error) {
	var c Claim
	if err := row.Scan(
		&c.ID, &c.RoomID, &c.OwnerID, &c.StartTime, &c.EndTime, &c.Status,
		&c.HoldExpiry, &c.Agenda, &c.PartySize, &c.IdempotencyKey,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get claim failed: %w", err)
	}
	return &c, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Claim, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "room_id", "owner_id", "start_time", "end_time", "status", "hold_expiry",
		"agenda", "party_size", "COALESCE(idempotency_key, '')", "created_at", "updated_at",
		"count(*) OVER() as total_count",
	).From("public.claims")

	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"owner_id": filter.OwnerID})
	}
	if filter.RoomID != "" {
		query = query.Where(squirrel.Eq{"room_id": filter.RoomID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	query = query.OrderBy("start_time ASC")

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
		return nil, 0, fmt.Errorf("build list claims query failed: %w", err)
	}

	rows, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list claims failed: %w", err)
	}
	defer rows.Close()

	var claims []*Claim
	var total int
	for rows.Next() {
		var c Claim
		if err := rows.Scan(
			&c.ID, &c.RoomID, &c.OwnerID, &c.StartTime, &c.EndTime, &c.Status,
			&c.HoldExpiry, &c.Agenda, &c.PartySize, &c.IdempotencyKey,
			&c.CreatedAt, &c.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan claim failed: %w", err)
		}
		claims = append(claims, &c)
	}

	return claims, total, nil
}

func (r *pgxRepository) ListActive(ctx context.Context, roomID string, now time.Time) ([]*Claim, error) {
	query := `
SELECT ` + claimColumns + `
FROM public.claims
WHERE room_id = $1
  AND (status = 'confirmed' OR (status = 'held' AND hold_expiry > $2))
ORDER BY start_time ASC`

	rows, err := r.query(ctx, query, roomID, now)
	if err != nil {
		return nil, fmt.Errorf("list active claims failed: %w", err)
	}
	defer rows.Close()

	var claims []*Claim
	for rows.Next() {
		var c Claim
		if err := rows.Scan(
			&c.ID, &c.RoomID, &c.OwnerID, &c.StartTime, &c.EndTime, &c.Status,
			&c.HoldExpiry, &c.Agenda, &c.PartySize, &c.IdempotencyKey,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan active claim failed: %w", err)
		}
		claims = append(claims, &c)
	}
	return claims, nil
}

func (r *pgxRepository) HasOverlap(ctx context.Context, roomID string, start, end time.Time, excludeClaimID string, now time.Time) (bool, error) {
	// Overlap: NewStart < ExistingEnd AND NewEnd > ExistingStart.
	// A held claim past its hold_expiry is logically absent and never blocks.
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	subQuery := psql.Select("1").
		From("public.claims").
		Where(squirrel.Eq{"room_id": roomID}).
		Where(squirrel.Or{
			squirrel.Eq{"status": StatusConfirmed},
			squirrel.And{
				squirrel.Eq{"status": StatusHeld},
				squirrel.Gt{"hold_expiry": now},
			},
		}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start})

	if excludeClaimID != "" {
		subQuery = subQuery.Where(squirrel.NotEq{"id": excludeClaimID})
	}

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check overlap query failed: %w", err)
	}

	query := "SELECT EXISTS (" + sql + ")"

	var exists bool
	if err := r.queryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) SetConfirmed(ctx context.Context, id, agenda string, partySize int) error {
	const stmt = `
UPDATE public.claims
SET status = 'confirmed', hold_expiry = NULL, agenda = $2, party_size = $3, updated_at = now()
WHERE id = $1`

	ct, err := r.exec(ctx, stmt, id, agenda, partySize)
	if err != nil {
		return fmt.Errorf("confirm claim failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) SetStatus(ctx context.Context, id string, status Status) error {
	const stmt = `
UPDATE public.claims
SET status = $2, hold_expiry = NULL, updated_at = now()
WHERE id = $1`

	ct, err := r.exec(ctx, stmt, id, status)
	if err != nil {
		return fmt.Errorf("update claim status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) ExpireStale(ctx context.Context, roomID string, now time.Time) ([]*Claim, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Update("public.claims").
		Set("status", StatusExpired).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"status": StatusHeld}).
		Where(squirrel.LtOrEq{"hold_expiry": now}).
		Suffix("RETURNING " + claimColumns)

	if roomID != "" {
		query = query.Where(squirrel.Eq{"room_id": roomID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build expire stale query failed: %w", err)
	}

	rows, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("expire stale holds failed: %w", err)
	}
	defer rows.Close()

	var expired []*Claim
	for rows.Next() {
		var c Claim
		if err := rows.Scan(
			&c.ID, &c.RoomID, &c.OwnerID, &c.StartTime, &c.EndTime, &c.Status,
			&c.HoldExpiry, &c.Agenda, &c.PartySize, &c.IdempotencyKey,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan expired claim failed: %w", err)
		}
		expired = append(expired, &c)
	}
	return expired, nil
}

func (r *pgxRepository) FindByIdempotencyKey(ctx context.Context, ownerID, key string) (*Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM public.claims WHERE owner_id = $1 AND idempotency_key = $2`

	c, err := r.scanOne(r.queryRow(ctx, query, ownerID, key))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *pgxRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *pgxRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *pgxRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
