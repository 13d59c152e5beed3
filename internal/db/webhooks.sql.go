package db

import (
	"context"
	"time"
)

const createWebhook = `-- name: CreateWebhook :execlastid
INSERT INTO webhooks (source, external_id, payload, headers, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(source, external_id) DO NOTHING`

type CreateWebhookParams struct {
	Source     string
	ExternalID string
	Payload    []byte
	Headers    []byte
}

// CreateWebhook devolve created=false quando (source, external_id) já existia.
func (q *Queries) CreateWebhook(ctx context.Context, arg CreateWebhookParams) (id int64, created bool, err error) {
	res, err := q.db.ExecContext(ctx, createWebhook, arg.Source, arg.ExternalID, arg.Payload, arg.Headers, Timestamp(time.Now()))
	if err != nil {
		return 0, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	id, err = res.LastInsertId()
	return id, err == nil, err
}

const getWebhook = `-- name: GetWebhook :one
SELECT id, source, external_id, payload, headers, created_at FROM webhooks WHERE id = ?`

func (q *Queries) GetWebhook(ctx context.Context, id int64) (Webhook, error) {
	var i Webhook
	err := q.db.QueryRowContext(ctx, getWebhook, id).Scan(
		&i.ID,
		&i.Source,
		&i.ExternalID,
		&i.Payload,
		&i.Headers,
		&i.CreatedAt,
	)
	return i, err
}
