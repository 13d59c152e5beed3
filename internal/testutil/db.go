// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/PauloHFS/hcportal/internal/db"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

// NewDB abre um SQLite em memória com as migrations aplicadas. Uma única
// conexão mantém o banco vivo durante o teste.
func NewDB(t *testing.T) (*sql.DB, *db.Queries) {
	t.Helper()

	conn, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatal(err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.RunMigrations(context.Background(), conn); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}
	return conn, db.New(conn)
}

// CreateUser cria um profissional verificado com a senha informada.
func CreateUser(t *testing.T, q *db.Queries, email, password string) db.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	user, err := q.CreateUser(context.Background(), db.CreateUserParams{
		Email:        email,
		PasswordHash: string(hash),
		IsVerified:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return user
}

// CreateShift insere um turno ofertado e devolve a linha completa.
func CreateShift(t *testing.T, q *db.Queries, userID int64, externalID string, starts time.Time, length time.Duration) db.Shift {
	t.Helper()

	ctx := context.Background()
	id, created, err := q.CreateShift(ctx, db.CreateShiftParams{
		UserID:          userID,
		Source:          "test",
		ExternalID:      externalID,
		PharmacyName:    "Farmácia " + externalID,
		PharmacyAddress: "Rua 1",
		StartsAt:        starts,
		EndsAt:          starts.Add(length),
		HourlyRateCents: 2000,
	})
	if err != nil || !created {
		t.Fatalf("create shift %s: created=%v err=%v", externalID, created, err)
	}
	shift, err := q.GetShift(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	return shift
}
