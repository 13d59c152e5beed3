package db

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) (*sql.DB, *Queries) {
	// Cria um arquivo temporário para o banco de dados
	tempFile, err := os.CreateTemp("", "hcportal_test_*.db")
	if err != nil {
		t.Fatal(err)
	}
	tempFile.Close()
	dbPath := tempFile.Name()

	dbConn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		t.Fatal(err)
	}

	// Garante a limpeza do arquivo após o teste
	t.Cleanup(func() {
		dbConn.Close()
		os.Remove(dbPath)
	})

	if err := RunMigrations(context.Background(), dbConn); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	return dbConn, New(dbConn)
}

func createTestUser(t *testing.T, q *Queries, email string) User {
	t.Helper()
	user, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        email,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatal(err)
	}
	return user
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbConn, _ := setupTestDB(t)
	ctx := context.Background()

	if err := RunMigrations(ctx, dbConn); err != nil {
		t.Fatalf("second run should be a no-op, got %v", err)
	}

	version, err := MigrationVersion(ctx, dbConn)
	if err != nil {
		t.Fatal(err)
	}
	if version != 3 {
		t.Errorf("expected schema version 3, got %d", version)
	}
}

func TestCreateUserDefaults(t *testing.T) {
	_, q := setupTestDB(t)

	user := createTestUser(t, q, "pro@example.com")
	if user.Role != RoleProfessional {
		t.Errorf("expected default role %q, got %q", RoleProfessional, user.Role)
	}
	if !user.EmailNotifications {
		t.Error("email notifications should default to on")
	}
	if user.Locale != "en" {
		t.Errorf("expected locale en, got %s", user.Locale)
	}

	found, err := q.GetUserByEmail(context.Background(), "PRO@example.com")
	if err != nil {
		t.Fatalf("lookup should be case-insensitive: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("expected id %d, got %d", user.ID, found.ID)
	}
}

func TestJobQueueAtomic(t *testing.T) {
	_, q := setupTestDB(t)
	ctx := context.Background()

	id, err := q.CreateJob(ctx, CreateJobParams{
		Type:    "test_job",
		Payload: []byte(`{}`),
		RunAt:   time.Now().Add(-time.Second),
	})
	if err != nil {
		t.Fatal(err)
	}

	job, err := q.PickNextJob(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if job.ID != id {
		t.Errorf("expected job %d, got %d", id, job.ID)
	}
	if job.Status != "processing" {
		t.Errorf("status incorreto: %s", job.Status)
	}
	if job.AttemptCount != 1 {
		t.Errorf("expected attempt_count 1, got %d", job.AttemptCount)
	}

	// Tentar pegar novamente (deve retornar erro de no rows)
	_, err = q.PickNextJob(ctx, time.Now())
	if err != sql.ErrNoRows {
		t.Errorf("esperado sql.ErrNoRows, obtido: %v", err)
	}
}

func TestPickNextJobRespectsRunAt(t *testing.T) {
	_, q := setupTestDB(t)
	ctx := context.Background()

	if _, err := q.CreateJob(ctx, CreateJobParams{
		Type:    "later",
		Payload: []byte(`{}`),
		RunAt:   time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := q.PickNextJob(ctx, time.Now()); err != sql.ErrNoRows {
		t.Errorf("future job must not be picked, got %v", err)
	}
	if _, err := q.PickNextJob(ctx, time.Now().Add(2*time.Hour)); err != nil {
		t.Errorf("job should be due later, got %v", err)
	}
}

func TestDeadLetterMove(t *testing.T) {
	_, q := setupTestDB(t)
	ctx := context.Background()

	id, err := q.CreateJob(ctx, CreateJobParams{Type: "send_email", Payload: []byte(`{"a":1}`)})
	if err != nil {
		t.Fatal(err)
	}
	if err := q.MoveToDeadLetter(ctx, id, sql.NullString{String: "boom", Valid: true}); err != nil {
		t.Fatal(err)
	}
	if err := q.DeleteJob(ctx, id); err != nil {
		t.Fatal(err)
	}

	count, err := q.CountDeadLetterJobsByType(ctx, "send_email")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 dead letter, got %d", count)
	}

	items, err := q.ListDeadLetterJobs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if items[0].OriginalJobID != id || items[0].LastError.String != "boom" {
		t.Errorf("unexpected dead letter %+v", items[0])
	}
}

func TestShiftListingAndTransitions(t *testing.T) {
	_, q := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, q, "shifts@example.com")
	now := time.Now()

	upcomingID, created, err := q.CreateShift(ctx, CreateShiftParams{
		UserID: user.ID, Source: "test", ExternalID: "a", PharmacyName: "A",
		StartsAt: now.Add(48 * time.Hour), EndsAt: now.Add(56 * time.Hour), HourlyRateCents: 3000,
	})
	if err != nil || !created {
		t.Fatalf("create shift: created=%v err=%v", created, err)
	}
	if _, _, err := q.CreateShift(ctx, CreateShiftParams{
		UserID: user.ID, Source: "test", ExternalID: "b", PharmacyName: "B",
		StartsAt: now.Add(-56 * time.Hour), EndsAt: now.Add(-48 * time.Hour), HourlyRateCents: 3000,
	}); err != nil {
		t.Fatal(err)
	}

	_, created, err = q.CreateShift(ctx, CreateShiftParams{
		UserID: user.ID, Source: "test", ExternalID: "a", PharmacyName: "A again",
		StartsAt: now, EndsAt: now.Add(time.Hour), HourlyRateCents: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("duplicate external id must not create a second shift")
	}

	upcoming, err := q.CountUpcomingShifts(ctx, user.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	past, err := q.CountPastShifts(ctx, user.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	if upcoming != 1 || past != 1 {
		t.Errorf("expected 1 upcoming and 1 past, got %d and %d", upcoming, past)
	}

	n, err := q.TransitionShift(ctx, TransitionShiftParams{ID: upcomingID, UserID: user.ID, From: ShiftOffered, To: ShiftAccepted})
	if err != nil || n != 1 {
		t.Fatalf("accept: n=%d err=%v", n, err)
	}
	n, err = q.TransitionShift(ctx, TransitionShiftParams{ID: upcomingID, UserID: user.ID, From: ShiftOffered, To: ShiftDeclined})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Error("stale transition must not affect rows")
	}

	completed, err := q.CompletePastShifts(ctx, now.Add(72*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if completed != 1 {
		t.Errorf("expected 1 completed shift, got %d", completed)
	}
}

func TestClaimShiftReminders(t *testing.T) {
	_, q := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user, err := q.CreateUser(ctx, CreateUserParams{Email: "remind@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatal(err)
	}

	accept := func(externalID string, starts time.Time) int64 {
		id, _, err := q.CreateShift(ctx, CreateShiftParams{
			UserID: user.ID, Source: "test", ExternalID: externalID, PharmacyName: externalID,
			StartsAt: starts, EndsAt: starts.Add(8 * time.Hour), HourlyRateCents: 1,
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := q.TransitionShift(ctx, TransitionShiftParams{ID: id, UserID: user.ID, From: ShiftOffered, To: ShiftAccepted}); err != nil {
			t.Fatal(err)
		}
		return id
	}
	soon := accept("soon", now.Add(2*time.Hour))
	accept("later", now.Add(48*time.Hour))

	claimed, err := q.ClaimShiftReminders(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(claimed) != 1 || claimed[0].ShiftID != soon || claimed[0].UserID != user.ID {
		t.Fatalf("expected only shift %d claimed, got %+v", soon, claimed)
	}

	again, err := q.ClaimShiftReminders(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("reminder claimed twice: %+v", again)
	}
}

func TestWebhookIdempotency(t *testing.T) {
	_, q := setupTestDB(t)
	ctx := context.Background()

	params := CreateWebhookParams{Source: "rota", ExternalID: "42", Payload: []byte(`{}`), Headers: []byte(`{}`)}
	id, created, err := q.CreateWebhook(ctx, params)
	if err != nil || !created || id == 0 {
		t.Fatalf("first webhook: id=%d created=%v err=%v", id, created, err)
	}
	_, created, err = q.CreateWebhook(ctx, params)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("replayed webhook must be ignored")
	}
}

func TestDeleteUserCascades(t *testing.T) {
	_, q := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, q, "gone@example.com")

	if err := q.AddUserLanguage(ctx, user.ID, "en"); err != nil {
		t.Fatal(err)
	}
	if err := q.UpsertBankAccount(ctx, UpsertBankAccountParams{UserID: user.ID, AccountHolder: "X", IbanEncrypted: "e", IbanLast4: "1234"}); err != nil {
		t.Fatal(err)
	}
	if err := q.DeleteUser(ctx, user.ID); err != nil {
		t.Fatal(err)
	}

	langs, err := q.ListUserLanguages(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(langs) != 0 {
		t.Errorf("languages should cascade, got %v", langs)
	}
	if _, err := q.GetBankAccount(ctx, user.ID); err != sql.ErrNoRows {
		t.Errorf("bank account should cascade, got %v", err)
	}
}

func TestSeedIsRepeatable(t *testing.T) {
	dbConn, q := setupTestDB(t)
	ctx := context.Background()

	if err := Seed(ctx, dbConn); err != nil {
		t.Fatal(err)
	}
	if err := Seed(ctx, dbConn); err != nil {
		t.Fatal(err)
	}

	count, err := q.CountUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 seeded users, got %d", count)
	}
}
