package config

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestSQLiteDSN(t *testing.T) {
	t.Setenv("SYSTEM_RAM_MB", "4096")
	t.Setenv("SQLITE_BUSY_TIMEOUT_MS", "2500")
	t.Setenv("SQLITE_SYNC_LEVEL", "full")

	cfg := LoadSQLite()
	if cfg.BusyTimeout != 2500*time.Millisecond {
		t.Errorf("expected busy timeout 2.5s, got %s", cfg.BusyTimeout)
	}

	dsn := cfg.DSN("./portal.db")
	path, query, ok := strings.Cut(dsn, "?")
	if !ok || path != "./portal.db" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"_journal_mode": "WAL",
		"_foreign_keys": "on",
		"_busy_timeout": "2500",
		"_synchronous":  "FULL",
		"_cache_size":   "-82944", // 81MB
	}
	for k, v := range want {
		if got := params.Get(k); got != v {
			t.Errorf("%s: expected %s, got %s", k, v, got)
		}
	}

	t.Run("KeepsExistingQuery", func(t *testing.T) {
		dsn := cfg.DSN("file:portal.db?mode=rwc")
		if !strings.HasPrefix(dsn, "file:portal.db?mode=rwc&") {
			t.Errorf("expected params appended with &, got %q", dsn)
		}
	})
}

func TestSQLiteIgnoresInvalidEnv(t *testing.T) {
	t.Setenv("SQLITE_SYNC_LEVEL", "fast")
	t.Setenv("SQLITE_TEMP_STORE", "disk")
	t.Setenv("SQLITE_CACHE_SIZE_KB", "-1")
	t.Setenv("SYSTEM_RAM_MB", "1024")

	cfg := LoadSQLite()
	if cfg.Synchronous != "NORMAL" {
		t.Errorf("expected NORMAL, got %s", cfg.Synchronous)
	}
	if cfg.TempStore != "MEMORY" {
		t.Errorf("expected MEMORY, got %s", cfg.TempStore)
	}
	if cfg.CacheSizeKB != 20*1024 {
		t.Errorf("expected cache from RAM, got %d", cfg.CacheSizeKB)
	}
}

func TestCacheSizeForRAM(t *testing.T) {
	cases := []struct {
		ramMB, wantKB int
	}{
		{0, 8 * 1024},
		{256, 8 * 1024},
		{2048, 40 * 1024},
		{64 * 1024, 256 * 1024},
	}
	for _, c := range cases {
		if got := cacheSizeForRAM(c.ramMB); got != c.wantKB {
			t.Errorf("cacheSizeForRAM(%d) = %d, want %d", c.ramMB, got, c.wantKB)
		}
	}
}
