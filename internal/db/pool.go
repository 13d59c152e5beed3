package db

import (
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/PauloHFS/hcportal/internal/config"
)

// DualPool separa leitura e escrita. O SQLite aceita um único escritor, então
// Write fica com uma conexão; o painel admin e as listagens leem por Read.
type DualPool struct {
	Read  *sql.DB
	Write *sql.DB
}

type poolSize struct {
	maxOpen, maxIdle int
}

type poolOptions struct {
	read, write poolSize
	sqlite      config.SQLiteConfig
}

type PoolOption func(*poolOptions)

// WithReaders muda quantas conexões de leitura ficam abertas.
func WithReaders(maxOpen int) PoolOption {
	return func(o *poolOptions) {
		o.read = poolSize{maxOpen: maxOpen, maxIdle: max(1, maxOpen/2)}
	}
}

func WithSQLite(cfg config.SQLiteConfig) PoolOption {
	return func(o *poolOptions) { o.sqlite = cfg }
}

// NewDualPool abre os dois pools sobre o mesmo arquivo. path é o caminho do
// banco; os parâmetros de conexão saem do SQLiteConfig.
func NewDualPool(driver, path string, opts ...PoolOption) (*DualPool, error) {
	o := poolOptions{
		read:   poolSize{maxOpen: runtime.NumCPU() * 2, maxIdle: runtime.NumCPU()},
		write:  poolSize{maxOpen: 1, maxIdle: 1},
		sqlite: config.LoadSQLite(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	dsn := o.sqlite.DSN(path)

	pool := &DualPool{}
	var err error
	if pool.Write, err = openPool(driver, dsn, o.write, o.sqlite); err != nil {
		return nil, fmt.Errorf("write pool: %w", err)
	}
	if pool.Read, err = openPool(driver, dsn, o.read, o.sqlite); err != nil {
		pool.Close()
		return nil, fmt.Errorf("read pool: %w", err)
	}
	return pool, nil
}

func openPool(driver, dsn string, size poolSize, cfg config.SQLiteConfig) (*sql.DB, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(size.maxOpen)
	conn.SetMaxIdleConns(size.maxIdle)
	conn.SetConnMaxIdleTime(5 * time.Minute)
	conn.SetConnMaxLifetime(time.Hour)

	if err := cfg.ApplyPragmas(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (p *DualPool) Close() error {
	var errs []error
	for _, conn := range []*sql.DB{p.Read, p.Write} {
		if conn != nil {
			errs = append(errs, conn.Close())
		}
	}
	return errors.Join(errs...)
}

// Reader devolve queries sobre o pool de leitura. Escritas vão por db.New(p.Write).
func (p *DualPool) Reader() *Queries {
	return New(p.Read)
}
