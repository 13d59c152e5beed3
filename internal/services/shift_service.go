package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/jobs"
	"github.com/PauloHFS/hcportal/internal/metrics"
	"github.com/PauloHFS/hcportal/internal/policies"
	"github.com/PauloHFS/hcportal/internal/validator"
)

const (
	ShiftsPerPage = 5

	TabUpcoming = "upcoming"
	TabPast     = "past"

	ActionAccept  = "accept"
	ActionDecline = "decline"
	ActionCancel  = "cancel"

	// CancelWindow é a antecedência mínima para cancelar um turno aceito.
	CancelWindow = 24 * time.Hour
	// ReminderWindow é quanto antes do início o lembrete sai.
	ReminderWindow = 24 * time.Hour
)

type transition struct {
	from string
	to   string
}

var transitions = map[string]transition{
	ActionAccept:  {from: db.ShiftOffered, to: db.ShiftAccepted},
	ActionDecline: {from: db.ShiftOffered, to: db.ShiftDeclined},
	ActionCancel:  {from: db.ShiftAccepted, to: db.ShiftCancelled},
}

// ShiftSummary agrega os turnos concluídos do profissional.
type ShiftSummary struct {
	Completed     int
	Duration      time.Duration
	EarningsCents int64
}

type ShiftList struct {
	Tab     string
	Now     time.Time
	Page    db.PagedResult[db.Shift]
	Summary ShiftSummary
}

// ShiftOffer é a oferta enviada pelos sistemas de escala das farmácias.
type ShiftOffer struct {
	ID                string    `json:"id" validate:"required,max=100"`
	ProfessionalEmail string    `json:"professional_email" validate:"required,email,max=254"`
	PharmacyName      string    `json:"pharmacy_name" validate:"required,max=200"`
	PharmacyAddress   string    `json:"pharmacy_address" validate:"max=300"`
	StartsAt          time.Time `json:"starts_at" validate:"required"`
	EndsAt            time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	HourlyRateCents   int64     `json:"hourly_rate_cents" validate:"gte=0"`
}

type ShiftService struct {
	db      *sql.DB
	queries *db.Queries
	now     func() time.Time
}

func NewShiftService(dbConn *sql.DB, queries *db.Queries) *ShiftService {
	return &ShiftService{db: dbConn, queries: queries, now: time.Now}
}

// NormalizeTab devolve upcoming para qualquer valor desconhecido.
func NormalizeTab(tab string) string {
	if tab == TabPast {
		return TabPast
	}
	return TabUpcoming
}

func (s *ShiftService) List(ctx context.Context, userID int64, tab string, page int) (ShiftList, error) {
	now := s.now().UTC()
	tab = NormalizeTab(tab)
	paging := db.PagingParams{Page: page, PerPage: ShiftsPerPage}
	params := db.ListShiftsParams{
		UserID: userID,
		Now:    now,
		Limit:  int64(paging.Limit()),
		Offset: int64(paging.Offset()),
	}

	var (
		items []db.Shift
		total int64
		err   error
	)
	if tab == TabPast {
		items, err = s.queries.ListPastShifts(ctx, params)
		if err == nil {
			total, err = s.queries.CountPastShifts(ctx, userID, now)
		}
	} else {
		items, err = s.queries.ListUpcomingShifts(ctx, params)
		if err == nil {
			total, err = s.queries.CountUpcomingShifts(ctx, userID, now)
		}
	}
	if err != nil {
		return ShiftList{}, fmt.Errorf("failed to list %s shifts: %w", tab, err)
	}

	summary, err := s.Summary(ctx, userID)
	if err != nil {
		return ShiftList{}, err
	}

	return ShiftList{
		Tab:     tab,
		Now:     now,
		Page:    db.NewPage(items, total, paging),
		Summary: summary,
	}, nil
}

func (s *ShiftService) Summary(ctx context.Context, userID int64) (ShiftSummary, error) {
	completed, err := s.queries.ListShiftsByStatus(ctx, userID, db.ShiftCompleted)
	if err != nil {
		return ShiftSummary{}, fmt.Errorf("failed to list completed shifts: %w", err)
	}

	var sum ShiftSummary
	for _, sh := range completed {
		sum.Completed++
		sum.Duration += sh.Duration()
		sum.EarningsCents += sh.EarningsCents()
	}
	return sum, nil
}

// AllowedActions lista as ações que o dono pode executar agora.
func AllowedActions(shift db.Shift, now time.Time) []string {
	switch shift.Status {
	case db.ShiftOffered:
		if shift.EndsAt.Before(now) {
			return nil
		}
		return []string{ActionAccept, ActionDecline}
	case db.ShiftAccepted:
		if shift.StartsAt.Sub(now) > CancelWindow {
			return []string{ActionCancel}
		}
	}
	return nil
}

// Transition aplica a ação ao turno. Turnos de outro profissional são
// tratados como inexistentes. A mudança de status e o job de confirmação
// entram na mesma transação.
func (s *ShiftService) Transition(ctx context.Context, actor db.User, shiftID int64, action string) (db.Shift, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return db.Shift{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	shift, err := qtx.GetShift(ctx, shiftID)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Shift{}, ErrShiftNotFound
	}
	if err != nil {
		return db.Shift{}, fmt.Errorf("failed to load shift: %w", err)
	}
	if !policies.CanManageShift(actor, shift) {
		return db.Shift{}, ErrShiftNotFound
	}

	t, ok := transitions[action]
	if !ok || shift.Status != t.from {
		return shift, ErrInvalidTransition
	}

	now := s.now()
	if action == ActionAccept && shift.EndsAt.Before(now) {
		return shift, ErrInvalidTransition
	}
	if action == ActionCancel && shift.StartsAt.Sub(now) <= CancelWindow {
		return shift, ErrCancelWindow
	}

	n, err := qtx.TransitionShift(ctx, db.TransitionShiftParams{
		ID:     shift.ID,
		UserID: actor.ID,
		From:   t.from,
		To:     t.to,
	})
	if err != nil {
		return shift, fmt.Errorf("failed to update shift: %w", err)
	}
	if n == 0 {
		return shift, ErrInvalidTransition
	}

	if action == ActionAccept && actor.EmailNotifications {
		if _, err := jobs.Enqueue(ctx, qtx, actor.ID, jobs.TypeSendShiftConfirmation, jobs.ShiftConfirmationPayload{
			ShiftID: shift.ID,
		}); err != nil {
			return shift, err
		}
	}

	updated, err := qtx.GetShift(ctx, shift.ID)
	if err != nil {
		return shift, fmt.Errorf("failed to reload shift: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return shift, fmt.Errorf("failed to commit transition: %w", err)
	}

	metrics.ShiftTransitions.WithLabelValues(t.to).Inc()
	return updated, nil
}

// ImportOffer cria o turno ofertado para o profissional dono do e-mail.
// created=false quando a oferta já existia.
func (s *ShiftService) ImportOffer(ctx context.Context, source string, offer ShiftOffer) (db.Shift, bool, error) {
	if err := validator.Validate(offer); err != nil {
		return db.Shift{}, false, err
	}

	user, err := s.queries.GetUserByEmail(ctx, strings.TrimSpace(offer.ProfessionalEmail))
	if errors.Is(err, sql.ErrNoRows) {
		return db.Shift{}, false, ErrProfessionalNotFound
	}
	if err != nil {
		return db.Shift{}, false, fmt.Errorf("failed to load professional: %w", err)
	}

	id, created, err := s.queries.CreateShift(ctx, db.CreateShiftParams{
		UserID:          user.ID,
		Source:          source,
		ExternalID:      offer.ID,
		PharmacyName:    strings.TrimSpace(offer.PharmacyName),
		PharmacyAddress: strings.TrimSpace(offer.PharmacyAddress),
		StartsAt:        offer.StartsAt.UTC(),
		EndsAt:          offer.EndsAt.UTC(),
		HourlyRateCents: offer.HourlyRateCents,
	})
	if err != nil {
		return db.Shift{}, false, fmt.Errorf("failed to create shift: %w", err)
	}
	if !created {
		return db.Shift{UserID: user.ID, Source: source, ExternalID: offer.ID}, false, nil
	}
	metrics.ShiftsImported.WithLabelValues(source).Inc()

	shift, err := s.queries.GetShift(ctx, id)
	if err != nil {
		return db.Shift{}, true, fmt.Errorf("failed to reload shift: %w", err)
	}
	return shift, true, nil
}

func (s *ShiftService) CompletePast(ctx context.Context) (int64, error) {
	n, err := s.queries.CompletePastShifts(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to complete past shifts: %w", err)
	}
	return n, nil
}

// QueueReminders enfileira um send_shift_reminder por turno aceito que começa
// dentro de ReminderWindow, só para quem tem shift_reminders ligado. O claim e
// os jobs entram na mesma transação, então cada turno é lembrado uma vez.
func (s *ShiftService) QueueReminders(ctx context.Context) (int, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	claimed, err := qtx.ClaimShiftReminders(ctx, now, now.Add(ReminderWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to claim shift reminders: %w", err)
	}
	for _, c := range claimed {
		if _, err := jobs.Enqueue(ctx, qtx, c.UserID, jobs.TypeSendShiftReminder, jobs.ShiftReminderPayload{
			ShiftID: c.ShiftID,
		}); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reminders: %w", err)
	}
	return len(claimed), nil
}
