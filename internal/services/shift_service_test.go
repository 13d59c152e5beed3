package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/jobs"
	"github.com/PauloHFS/hcportal/internal/testutil"
	"github.com/PauloHFS/hcportal/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShiftService(t *testing.T) (*ShiftService, *db.Queries, time.Time) {
	t.Helper()
	conn, q := testutil.NewDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := NewShiftService(conn, q)
	svc.now = func() time.Time { return now }
	return svc, q, now
}

func TestShiftListTabsAndPaging(t *testing.T) {
	svc, q, now := newShiftService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, q, "list@example.com", "password123")

	for i := 0; i < 7; i++ {
		testutil.CreateShift(t, q, user.ID, fmt.Sprintf("up-%d", i), now.Add(time.Duration(i+1)*24*time.Hour), 8*time.Hour)
	}
	testutil.CreateShift(t, q, user.ID, "old", now.Add(-72*time.Hour), 8*time.Hour)

	first, err := svc.List(ctx, user.ID, "", 1)
	require.NoError(t, err)
	assert.Equal(t, TabUpcoming, first.Tab)
	assert.Len(t, first.Page.Items, ShiftsPerPage)
	assert.Equal(t, 7, first.Page.TotalItems)
	assert.Equal(t, 2, first.Page.TotalPages())
	assert.Equal(t, "up-0", first.Page.Items[0].ExternalID)

	second, err := svc.List(ctx, user.ID, TabUpcoming, 2)
	require.NoError(t, err)
	assert.Len(t, second.Page.Items, 2)

	past, err := svc.List(ctx, user.ID, TabPast, 1)
	require.NoError(t, err)
	require.Len(t, past.Page.Items, 1)
	assert.Equal(t, "old", past.Page.Items[0].ExternalID)
}

func TestShiftSummaryCountsCompleted(t *testing.T) {
	svc, q, now := newShiftService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, q, "sum@example.com", "password123")

	sh := testutil.CreateShift(t, q, user.ID, "done", now.Add(-48*time.Hour), 6*time.Hour)
	_, err := q.TransitionShift(ctx, db.TransitionShiftParams{ID: sh.ID, UserID: user.ID, From: db.ShiftOffered, To: db.ShiftAccepted})
	require.NoError(t, err)

	n, err := svc.CompletePast(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sum, err := svc.Summary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Completed)
	assert.Equal(t, 6*time.Hour, sum.Duration)
	assert.Equal(t, int64(12000), sum.EarningsCents)
}

func TestShiftTransitions(t *testing.T) {
	tests := []struct {
		name    string
		startIn time.Duration
		setup   []string
		action  string
		want    string
		wantErr error
	}{
		{"accept offered", 72 * time.Hour, nil, ActionAccept, db.ShiftAccepted, nil},
		{"decline offered", 72 * time.Hour, nil, ActionDecline, db.ShiftDeclined, nil},
		{"cancel accepted far ahead", 72 * time.Hour, []string{ActionAccept}, ActionCancel, db.ShiftCancelled, nil},
		{"cancel inside 24h", 10 * time.Hour, []string{ActionAccept}, ActionCancel, "", ErrCancelWindow},
		{"cancel offered", 72 * time.Hour, nil, ActionCancel, "", ErrInvalidTransition},
		{"accept declined", 72 * time.Hour, []string{ActionDecline}, ActionAccept, "", ErrInvalidTransition},
		{"unknown action", 72 * time.Hour, nil, "complete", "", ErrInvalidTransition},
		{"accept finished offer", -10 * time.Hour, nil, ActionAccept, "", ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, q, now := newShiftService(t)
			ctx := context.Background()
			user := testutil.CreateUser(t, q, "tr@example.com", "password123")
			sh := testutil.CreateShift(t, q, user.ID, "s", now.Add(tt.startIn), 8*time.Hour)

			for _, a := range tt.setup {
				_, err := svc.Transition(ctx, user, sh.ID, a)
				require.NoError(t, err)
			}

			got, err := svc.Transition(ctx, user, sh.ID, tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestShiftTransitionForeignShiftIsNotFound(t *testing.T) {
	svc, q, now := newShiftService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, q, "owner@example.com", "password123")
	other := testutil.CreateUser(t, q, "other@example.com", "password123")
	sh := testutil.CreateShift(t, q, owner.ID, "mine", now.Add(72*time.Hour), 8*time.Hour)

	_, err := svc.Transition(ctx, other, sh.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrShiftNotFound)

	_, err = svc.Transition(ctx, owner, 9999, ActionAccept)
	assert.ErrorIs(t, err, ErrShiftNotFound)
}

func TestAcceptEnqueuesConfirmation(t *testing.T) {
	svc, q, now := newShiftService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, q, "mail@example.com", "password123")
	require.True(t, user.EmailNotifications)
	sh := testutil.CreateShift(t, q, user.ID, "m", now.Add(72*time.Hour), 8*time.Hour)

	_, err := svc.Transition(ctx, user, sh.ID, ActionAccept)
	require.NoError(t, err)

	job, err := q.PickNextJob(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, jobs.TypeSendShiftConfirmation, job.Type)
	assert.JSONEq(t, fmt.Sprintf(`{"shift_id":%d}`, sh.ID), string(job.Payload))
}

func TestAcceptRollsBackWhenJobInsertFails(t *testing.T) {
	svc, q, now := newShiftService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, q, "queue@example.com", "password123")
	sh := testutil.CreateShift(t, q, user.ID, "q", now.Add(72*time.Hour), 8*time.Hour)

	_, err := svc.db.ExecContext(ctx, `CREATE TRIGGER jobs_down BEFORE INSERT ON jobs
		BEGIN SELECT RAISE(FAIL, 'queue down'); END`)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, user, sh.ID, ActionAccept)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue down")

	got, err := q.GetShift(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, db.ShiftOffered, got.Status)

	_, err = svc.db.ExecContext(ctx, `DROP TRIGGER jobs_down`)
	require.NoError(t, err)

	accepted, err := svc.Transition(ctx, user, sh.ID, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, db.ShiftAccepted, accepted.Status)
}

func TestAllowedActions(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		shift db.Shift
		want  []string
	}{
		{"offered", db.Shift{Status: db.ShiftOffered, StartsAt: now.Add(time.Hour), EndsAt: now.Add(9 * time.Hour)}, []string{ActionAccept, ActionDecline}},
		{"offered already over", db.Shift{Status: db.ShiftOffered, StartsAt: now.Add(-9 * time.Hour), EndsAt: now.Add(-time.Hour)}, nil},
		{"accepted far", db.Shift{Status: db.ShiftAccepted, StartsAt: now.Add(25 * time.Hour), EndsAt: now.Add(33 * time.Hour)}, []string{ActionCancel}},
		{"accepted near", db.Shift{Status: db.ShiftAccepted, StartsAt: now.Add(23 * time.Hour), EndsAt: now.Add(31 * time.Hour)}, nil},
		{"completed", db.Shift{Status: db.ShiftCompleted}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedActions(tt.shift, now))
		})
	}
}

func TestImportOffer(t *testing.T) {
	svc, q, now := newShiftService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, q, "offer@example.com", "password123")

	offer := ShiftOffer{
		ID:                "ext-1",
		ProfessionalEmail: "OFFER@example.com",
		PharmacyName:      "Farmácia Central",
		StartsAt:          now.Add(48 * time.Hour),
		EndsAt:            now.Add(56 * time.Hour),
		HourlyRateCents:   2500,
	}

	shift, created, err := svc.ImportOffer(ctx, "rota", offer)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, user.ID, shift.UserID)
	assert.Equal(t, db.ShiftOffered, shift.Status)

	_, created, err = svc.ImportOffer(ctx, "rota", offer)
	require.NoError(t, err)
	assert.False(t, created)

	offer.ID = "ext-2"
	offer.ProfessionalEmail = "nobody@example.com"
	_, _, err = svc.ImportOffer(ctx, "rota", offer)
	assert.ErrorIs(t, err, ErrProfessionalNotFound)

	offer.EndsAt = offer.StartsAt.Add(-time.Hour)
	_, _, err = svc.ImportOffer(ctx, "rota", offer)
	var fe validator.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "ends_at")
}
