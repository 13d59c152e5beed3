package benchmarks

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PauloHFS/hcportal/internal/config"
	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/services"
	"github.com/PauloHFS/hcportal/internal/vault"
	"github.com/PauloHFS/hcportal/internal/view/pages"
	"github.com/PauloHFS/hcportal/internal/webhook"
	_ "github.com/mattn/go-sqlite3"
)

const (
	driverName = "sqlite3"
	benchEmail = "bench@example.com"
)

// benchDB devolve a conexão de escrita e as queries de leitura. Em "dual" as
// leituras vão para o pool separado do db.NewDualPool.
type benchDB struct {
	write  *sql.DB
	reader *db.Queries
	userID int64
}

func setupBenchDB(b *testing.B, poolMode string) benchDB {
	b.Helper()
	path := filepath.Join(b.TempDir(), "bench.db")
	sqliteCfg := config.LoadSQLite()
	ctx := context.Background()

	var bdb benchDB
	switch poolMode {
	case "dual":
		pool, err := db.NewDualPool(driverName, path, db.WithSQLite(sqliteCfg))
		if err != nil {
			b.Fatal(err)
		}
		b.Cleanup(func() { pool.Close() })
		bdb = benchDB{write: pool.Write, reader: pool.Reader()}
	default:
		conn, err := sql.Open(driverName, sqliteCfg.DSN(path))
		if err != nil {
			b.Fatal(err)
		}
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		b.Cleanup(func() { conn.Close() })
		bdb = benchDB{write: conn, reader: db.New(conn)}
	}

	if err := db.RunMigrations(ctx, bdb.write); err != nil {
		b.Fatal(err)
	}

	q := db.New(bdb.write)
	user, err := q.CreateUser(ctx, db.CreateUserParams{Email: benchEmail, PasswordHash: "hash", IsVerified: true})
	if err != nil {
		b.Fatal(err)
	}
	bdb.userID = user.ID

	start := time.Now().Add(-100 * 24 * time.Hour)
	for i := range 200 {
		starts := start.Add(time.Duration(i) * 24 * time.Hour)
		if _, _, err := q.CreateShift(ctx, db.CreateShiftParams{
			UserID:          user.ID,
			Source:          "bench",
			ExternalID:      fmt.Sprintf("shift-%d", i),
			PharmacyName:    fmt.Sprintf("Pharmacy %d", i%7),
			StartsAt:        starts,
			EndsAt:          starts.Add(8 * time.Hour),
			HourlyRateCents: 3500,
		}); err != nil {
			b.Fatal(err)
		}
	}
	return bdb
}

func benchmarkMyShifts(b *testing.B, poolMode string) {
	bdb := setupBenchDB(b, poolMode)
	shifts := services.NewShiftService(bdb.write, bdb.reader)
	ctx := context.Background()
	metrics := NewMetrics()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		start := time.Now()
		tab := services.TabUpcoming
		if i%2 == 1 {
			tab = services.TabPast
		}
		list, err := shifts.List(ctx, bdb.userID, tab, 1+i%4)
		if err != nil {
			b.Fatal(err)
		}
		w := httptest.NewRecorder()
		if err := pages.MyShiftsPage(list).Render(ctx, w); err != nil {
			b.Fatal(err)
		}
		metrics.Record(time.Since(start))
	}
	b.StopTimer()
	metrics.Report(b)
}

func BenchmarkMyShiftsRendering_Single(b *testing.B) { benchmarkMyShifts(b, "single") }
func BenchmarkMyShiftsRendering_Dual(b *testing.B)   { benchmarkMyShifts(b, "dual") }

func BenchmarkConcurrentWebhookIngestion(b *testing.B) {
	bdb := setupBenchDB(b, "single")
	handler := webhook.NewHandler(bdb.write, db.New(bdb.write))
	starts := time.Now().Add(72 * time.Hour).UTC()

	var seq, busy atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			n := seq.Add(1)
			payload := fmt.Sprintf(`{"id":"evt-%d","professional_email":%q,"pharmacy_name":"Central","starts_at":%q,"ends_at":%q,"hourly_rate_cents":3000}`,
				n, benchEmail, starts.Format(time.RFC3339), starts.Add(8*time.Hour).Format(time.RFC3339))
			req := httptest.NewRequest(http.MethodPost, "/webhooks/rota", bytes.NewBufferString(payload))
			req.SetPathValue("source", "rota")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				busy.Add(1)
			}
		}
	})
	b.StopTimer()

	// SQLITE_BUSY aparece como 500 do handler
	b.ReportMetric(float64(busy.Load()), "errors")
}

func BenchmarkBankAccountEncryption(b *testing.B) {
	v, err := vault.New(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		b.Fatal(err)
	}
	iban := "DE89370400440532013000"

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sealed, err := v.Encrypt(iban)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := v.Decrypt(sealed); err != nil {
			b.Fatal(err)
		}
	}
}
