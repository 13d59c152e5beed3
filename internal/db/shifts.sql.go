package db

import (
	"context"
	"time"
)

const shiftColumns = `id, user_id, source, external_id, pharmacy_name, pharmacy_address,
	starts_at, ends_at, hourly_rate_cents, status, created_at, updated_at`

func scanShift(row rowScanner) (Shift, error) {
	var i Shift
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Source,
		&i.ExternalID,
		&i.PharmacyName,
		&i.PharmacyAddress,
		&i.StartsAt,
		&i.EndsAt,
		&i.HourlyRateCents,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryShifts(ctx context.Context, query string, args ...interface{}) ([]Shift, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Shift
	for rows.Next() {
		i, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createShift = `-- name: CreateShift :execlastid
INSERT INTO shifts (user_id, source, external_id, pharmacy_name, pharmacy_address, starts_at, ends_at, hourly_rate_cents, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'offered', ?, ?)
ON CONFLICT(source, external_id) DO NOTHING`

type CreateShiftParams struct {
	UserID          int64
	Source          string
	ExternalID      string
	PharmacyName    string
	PharmacyAddress string
	StartsAt        time.Time
	EndsAt          time.Time
	HourlyRateCents int64
}

// CreateShift é idempotente por (source, external_id); created=false indica
// que a oferta já tinha sido importada.
func (q *Queries) CreateShift(ctx context.Context, arg CreateShiftParams) (id int64, created bool, err error) {
	now := Timestamp(time.Now())
	res, err := q.db.ExecContext(ctx, createShift,
		arg.UserID,
		arg.Source,
		arg.ExternalID,
		arg.PharmacyName,
		arg.PharmacyAddress,
		Timestamp(arg.StartsAt),
		Timestamp(arg.EndsAt),
		arg.HourlyRateCents,
		now,
		now,
	)
	if err != nil {
		return 0, false, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return 0, false, err
	}
	id, err = res.LastInsertId()
	return id, err == nil, err
}

const getShift = `-- name: GetShift :one
SELECT ` + shiftColumns + ` FROM shifts WHERE id = ?`

func (q *Queries) GetShift(ctx context.Context, id int64) (Shift, error) {
	return scanShift(q.db.QueryRowContext(ctx, getShift, id))
}

const upcomingFilter = `user_id = ?1 AND status IN ('offered', 'accepted') AND ends_at >= ?2`

const listUpcomingShifts = `-- name: ListUpcomingShifts :many
SELECT ` + shiftColumns + ` FROM shifts
WHERE ` + upcomingFilter + `
ORDER BY starts_at ASC, id ASC
LIMIT ?3 OFFSET ?4`

type ListShiftsParams struct {
	UserID int64
	Now    time.Time
	Limit  int64
	Offset int64
}

func (q *Queries) ListUpcomingShifts(ctx context.Context, arg ListShiftsParams) ([]Shift, error) {
	return q.queryShifts(ctx, listUpcomingShifts, arg.UserID, Timestamp(arg.Now), arg.Limit, arg.Offset)
}

const countUpcomingShifts = `-- name: CountUpcomingShifts :one
SELECT COUNT(*) FROM shifts WHERE ` + upcomingFilter

func (q *Queries) CountUpcomingShifts(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUpcomingShifts, userID, Timestamp(now)).Scan(&count)
	return count, err
}

const pastFilter = `user_id = ?1 AND NOT (status IN ('offered', 'accepted') AND ends_at >= ?2)`

const listPastShifts = `-- name: ListPastShifts :many
SELECT ` + shiftColumns + ` FROM shifts
WHERE ` + pastFilter + `
ORDER BY starts_at DESC, id DESC
LIMIT ?3 OFFSET ?4`

func (q *Queries) ListPastShifts(ctx context.Context, arg ListShiftsParams) ([]Shift, error) {
	return q.queryShifts(ctx, listPastShifts, arg.UserID, Timestamp(arg.Now), arg.Limit, arg.Offset)
}

const countPastShifts = `-- name: CountPastShifts :one
SELECT COUNT(*) FROM shifts WHERE ` + pastFilter

func (q *Queries) CountPastShifts(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPastShifts, userID, Timestamp(now)).Scan(&count)
	return count, err
}

const listShiftsByStatus = `-- name: ListShiftsByStatus :many
SELECT ` + shiftColumns + ` FROM shifts WHERE user_id = ? AND status = ? ORDER BY starts_at ASC`

func (q *Queries) ListShiftsByStatus(ctx context.Context, userID int64, status string) ([]Shift, error) {
	return q.queryShifts(ctx, listShiftsByStatus, userID, status)
}

const transitionShift = `-- name: TransitionShift :execrows
UPDATE shifts SET status = ?, updated_at = ? WHERE id = ? AND user_id = ? AND status = ?`

type TransitionShiftParams struct {
	ID     int64
	UserID int64
	From   string
	To     string
}

// TransitionShift só altera a linha se o status atual ainda for From; zero
// linhas afetadas significa que outra requisição chegou antes.
func (q *Queries) TransitionShift(ctx context.Context, arg TransitionShiftParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, transitionShift, arg.To, Timestamp(time.Now()), arg.ID, arg.UserID, arg.From)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const completePastShifts = `-- name: CompletePastShifts :execrows
UPDATE shifts SET status = 'completed', updated_at = ?1 WHERE status = 'accepted' AND ends_at < ?1`

func (q *Queries) CompletePastShifts(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, completePastShifts, Timestamp(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countShiftsByStatus = `-- name: CountShiftsByStatus :many
SELECT status, COUNT(*) FROM shifts GROUP BY status`

func (q *Queries) CountShiftsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, countShiftsByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

const claimShiftReminders = `-- name: ClaimShiftReminders :many
UPDATE shifts SET reminded_at = ?1
WHERE status = 'accepted' AND reminded_at IS NULL
  AND starts_at > ?1 AND starts_at <= ?2
  AND user_id IN (SELECT id FROM users WHERE shift_reminders = 1)
RETURNING id, user_id`

type ClaimedReminder struct {
	ShiftID int64
	UserID  int64
}

// ClaimShiftReminders marca reminded_at nos turnos aceitos que começam até
// until. Um turno é devolvido uma única vez.
func (q *Queries) ClaimShiftReminders(ctx context.Context, now, until time.Time) ([]ClaimedReminder, error) {
	rows, err := q.db.QueryContext(ctx, claimShiftReminders, Timestamp(now), Timestamp(until))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ClaimedReminder
	for rows.Next() {
		var i ClaimedReminder
		if err := rows.Scan(&i.ShiftID, &i.UserID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
