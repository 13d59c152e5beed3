package db

import "context"

func (q *Queries) listCodes(ctx context.Context, query string, userID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		items = append(items, code)
	}
	return items, rows.Err()
}

const listUserLanguages = `-- name: ListUserLanguages :many
SELECT code FROM user_languages WHERE user_id = ? ORDER BY code`

func (q *Queries) ListUserLanguages(ctx context.Context, userID int64) ([]string, error) {
	return q.listCodes(ctx, listUserLanguages, userID)
}

const deleteUserLanguages = `-- name: DeleteUserLanguages :exec
DELETE FROM user_languages WHERE user_id = ?`

func (q *Queries) DeleteUserLanguages(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, deleteUserLanguages, userID)
	return err
}

const addUserLanguage = `-- name: AddUserLanguage :exec
INSERT OR IGNORE INTO user_languages (user_id, code) VALUES (?, ?)`

func (q *Queries) AddUserLanguage(ctx context.Context, userID int64, code string) error {
	_, err := q.db.ExecContext(ctx, addUserLanguage, userID, code)
	return err
}

const listUserSoftware = `-- name: ListUserSoftware :many
SELECT code FROM user_software WHERE user_id = ? ORDER BY code`

func (q *Queries) ListUserSoftware(ctx context.Context, userID int64) ([]string, error) {
	return q.listCodes(ctx, listUserSoftware, userID)
}

const deleteUserSoftware = `-- name: DeleteUserSoftware :exec
DELETE FROM user_software WHERE user_id = ?`

func (q *Queries) DeleteUserSoftware(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, deleteUserSoftware, userID)
	return err
}

const addUserSoftware = `-- name: AddUserSoftware :exec
INSERT OR IGNORE INTO user_software (user_id, code) VALUES (?, ?)`

func (q *Queries) AddUserSoftware(ctx context.Context, userID int64, code string) error {
	_, err := q.db.ExecContext(ctx, addUserSoftware, userID, code)
	return err
}
