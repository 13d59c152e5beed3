package config

import (
	"bufio"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// SQLiteConfig reúne os pragmas do banco. Os que valem por conexão vão na DSN,
// já que o database/sql abre conexões sob demanda. O resto sai em ApplyPragmas.
type SQLiteConfig struct {
	BusyTimeout time.Duration
	Synchronous string // OFF, NORMAL, FULL ou EXTRA
	CacheSizeKB int
	TempStore   string // MEMORY ou FILE
	MmapBytes   int64
}

var syncLevels = []string{"OFF", "NORMAL", "FULL", "EXTRA"}

// LoadSQLite lê os ajustes SQLITE_* do ambiente. O cache padrão acompanha a
// RAM da máquina.
func LoadSQLite() SQLiteConfig {
	cfg := SQLiteConfig{
		BusyTimeout: 5 * time.Second,
		Synchronous: "NORMAL",
		CacheSizeKB: cacheSizeForRAM(systemRAMMB()),
		TempStore:   "MEMORY",
		MmapBytes:   256 << 20,
	}

	if ms, err := strconv.Atoi(os.Getenv("SQLITE_BUSY_TIMEOUT_MS")); err == nil && ms > 0 {
		cfg.BusyTimeout = time.Duration(ms) * time.Millisecond
	}
	if v := strings.ToUpper(os.Getenv("SQLITE_SYNC_LEVEL")); slices.Contains(syncLevels, v) {
		cfg.Synchronous = v
	}
	if kb, err := strconv.Atoi(os.Getenv("SQLITE_CACHE_SIZE_KB")); err == nil && kb > 0 {
		cfg.CacheSizeKB = kb
	}
	if v := strings.ToUpper(os.Getenv("SQLITE_TEMP_STORE")); v == "MEMORY" || v == "FILE" {
		cfg.TempStore = v
	}
	return cfg
}

// DSN acrescenta ao caminho os parâmetros entendidos pelo go-sqlite3.
func (c SQLiteConfig) DSN(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", strconv.FormatInt(c.BusyTimeout.Milliseconds(), 10))
	params.Set("_synchronous", c.Synchronous)
	// negativo = KB
	params.Set("_cache_size", strconv.Itoa(-c.CacheSizeKB))

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}

func (c SQLiteConfig) ApplyPragmas(db *sql.DB) error {
	pragmas := [][2]string{
		{"temp_store", c.TempStore},
		{"mmap_size", strconv.FormatInt(c.MmapBytes, 10)},
		{"wal_autocheckpoint", "1000"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p[0], p[1])); err != nil {
			return fmt.Errorf("failed to set PRAGMA %s: %w", p[0], err)
		}
	}
	return nil
}

// cacheSizeForRAM usa 2% da RAM, entre 8MB e 256MB.
func cacheSizeForRAM(ramMB int) int {
	mb := min(max(ramMB/50, 8), 256)
	return mb * 1024
}

func systemRAMMB() int {
	if mb, err := strconv.Atoi(os.Getenv("SYSTEM_RAM_MB")); err == nil && mb > 0 {
		return mb
	}

	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && fields[0] == "MemTotal:" {
			kb, _ := strconv.Atoi(fields[1])
			return kb / 1024
		}
	}
	return 0
}
