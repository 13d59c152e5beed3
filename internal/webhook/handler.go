package webhook

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/jobs"
	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/services"
	"github.com/PauloHFS/hcportal/internal/validator"
)

const maxPayloadBytes = 1 << 20

var sourcePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,49}$`)

// Cabeçalhos com credenciais não vão para a tabela de auditoria.
var droppedHeaders = []string{"Authorization", "Cookie", "X-Api-Key"}

// Response é o corpo JSON devolvido ao sistema de escala.
type Response struct {
	Status    string            `json:"status"`
	WebhookID int64             `json:"webhook_id,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type Handler struct {
	db      *sql.DB
	queries *db.Queries
}

func NewHandler(dbConn *sql.DB, q *db.Queries) *Handler {
	return &Handler{db: dbConn, queries: q}
}

// ServeHTTP handles incoming shift offers
// @Summary Receber oferta de turno
// @Description Persiste a oferta enviada pelo sistema de escala da farmácia e enfileira o job process_webhook. Reenvios do mesmo id são ignorados.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param source path string true "Sistema de origem (ex: rota)"
// @Param payload body services.ShiftOffer true "Oferta de turno"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 422 {object} Response
// @Failure 500 {object} Response
// @Router /webhooks/{source} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	source := r.PathValue("source")
	logging.AddToEvent(ctx, slog.String("operation", "webhook"), slog.String("source", source))

	if !sourcePattern.MatchString(source) {
		writeJSON(w, http.StatusBadRequest, Response{Status: "invalid source"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Status: "payload too large or unreadable"})
		return
	}

	var offer services.ShiftOffer
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&offer); err != nil {
		logging.AddToEvent(ctx, slog.String("outcome", "invalid_json"))
		writeJSON(w, http.StatusBadRequest, Response{Status: "invalid json"})
		return
	}

	if err := validator.Validate(offer); err != nil {
		var fe validator.FieldErrors
		errors.As(err, &fe)
		logging.AddToEvent(ctx, slog.String("outcome", "validation_failed"))
		writeJSON(w, http.StatusUnprocessableEntity, Response{Status: "validation failed", Errors: fe})
		return
	}

	headers := r.Header.Clone()
	for _, name := range droppedHeaders {
		headers.Del(name)
	}
	rawHeaders, _ := json.Marshal(headers)

	id, created, err := h.store(r, source, offer.ID, payload, rawHeaders)
	if err != nil {
		logging.AddToEvent(ctx, slog.String("outcome", "error"), slog.String("error_reason", err.Error()))
		writeJSON(w, http.StatusInternalServerError, Response{Status: "failed to store webhook"})
		return
	}

	if !created {
		logging.AddToEvent(ctx, slog.String("outcome", "duplicate"))
		writeJSON(w, http.StatusOK, Response{Status: "duplicate"})
		return
	}

	logging.AddToEvent(ctx, slog.String("outcome", "accepted"), slog.Int64("webhook_id", id))
	writeJSON(w, http.StatusOK, Response{Status: "accepted", WebhookID: id})
}

// store grava o webhook bruto e o job process_webhook na mesma transação.
func (h *Handler) store(r *http.Request, source, externalID string, payload, headers []byte) (int64, bool, error) {
	ctx := r.Context()

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback() }()

	qtx := h.queries.WithTx(tx)
	id, created, err := qtx.CreateWebhook(ctx, db.CreateWebhookParams{
		Source:     source,
		ExternalID: externalID,
		Payload:    payload,
		Headers:    headers,
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to store webhook: %w", err)
	}
	if !created {
		return 0, false, nil
	}

	if _, err := jobs.Enqueue(ctx, qtx, 0, jobs.TypeProcessWebhook, jobs.WebhookPayload{WebhookID: id}); err != nil {
		return 0, false, err
	}

	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
