package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/PauloHFS/hcportal/internal/catalog"
	"github.com/PauloHFS/hcportal/internal/db"
)

// SelectionService manages the languages and software a professional picks
// from the catalog.
type SelectionService struct {
	db      *sql.DB
	queries *db.Queries
	catalog *catalog.Catalog
}

func NewSelectionService(dbConn *sql.DB, queries *db.Queries, cat *catalog.Catalog) *SelectionService {
	return &SelectionService{db: dbConn, queries: queries, catalog: cat}
}

type Selection struct {
	Items    []catalog.Item
	Selected map[string]bool
}

func (s *SelectionService) Get(ctx context.Context, userID int64, kind catalog.Kind) (Selection, error) {
	var (
		codes []string
		err   error
	)
	switch kind {
	case catalog.KindLanguage:
		codes, err = s.queries.ListUserLanguages(ctx, userID)
	case catalog.KindSoftware:
		codes, err = s.queries.ListUserSoftware(ctx, userID)
	default:
		return Selection{}, fmt.Errorf("unknown selection kind %q", kind)
	}
	if err != nil {
		return Selection{}, fmt.Errorf("failed to list %s: %w", kind, err)
	}

	selected := make(map[string]bool, len(codes))
	for _, c := range codes {
		selected[c] = true
	}
	return Selection{Items: s.catalog.Items(kind), Selected: selected}, nil
}

// Replace troca a seleção inteira dentro de uma transação.
func (s *SelectionService) Replace(ctx context.Context, userID int64, kind catalog.Kind, codes []string) error {
	seen := make(map[string]bool, len(codes))
	unique := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		unique = append(unique, c)
	}

	if len(unique) == 0 {
		return ErrEmptySelection
	}
	if err := s.catalog.Check(kind, unique); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	deleteAll, add := qtx.DeleteUserLanguages, qtx.AddUserLanguage
	if kind == catalog.KindSoftware {
		deleteAll, add = qtx.DeleteUserSoftware, qtx.AddUserSoftware
	}

	if err := deleteAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", kind, err)
	}
	for _, c := range unique {
		if err := add(ctx, userID, c); err != nil {
			return fmt.Errorf("failed to add %s %q: %w", kind, c, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s selection: %w", kind, err)
	}
	return nil
}
