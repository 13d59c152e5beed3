package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/PauloHFS/hcportal/internal/db"
)

const (
	TypeSendVerificationEmail  = "send_verification_email"
	TypeSendPasswordResetEmail = "send_password_reset_email"
	TypeSendShiftConfirmation  = "send_shift_confirmation"
	TypeSendShiftReminder      = "send_shift_reminder"
	TypeProcessWebhook         = "process_webhook"
)

// Types lista todos os tipos conhecidos pelo worker.
var Types = []string{
	TypeSendVerificationEmail,
	TypeSendPasswordResetEmail,
	TypeSendShiftConfirmation,
	TypeSendShiftReminder,
	TypeProcessWebhook,
}

type EmailTokenPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type ShiftConfirmationPayload struct {
	ShiftID int64 `json:"shift_id"`
}

type ShiftReminderPayload struct {
	ShiftID int64 `json:"shift_id"`
}

type WebhookPayload struct {
	WebhookID int64 `json:"webhook_id"`
}

// Enqueue serializa payload e cria um job pendente para agora. userID zero
// significa um job sem dono.
func Enqueue(ctx context.Context, q *db.Queries, userID int64, jobType string, payload any) (int64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal %s payload: %w", jobType, err)
	}

	id, err := q.CreateJob(ctx, db.CreateJobParams{
		UserID:  sql.NullInt64{Int64: userID, Valid: userID > 0},
		Type:    jobType,
		Payload: raw,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create %s job: %w", jobType, err)
	}
	return id, nil
}
