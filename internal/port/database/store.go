// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/inkpress-ai/inkpress/internal/domain/article"
)

// Store is the port interface for durable article state.
//
// All article writes are versioned: UpdateArticle performs a
// compare-and-swap on Article.Version and fails with domain.ErrConflict
// when another writer got there first, so no status transition or ledger
// append can be lost to a race.
type Store interface {
	ListArticles(ctx context.Context) ([]article.Article, error)
	GetArticle(ctx context.Context, id string) (*article.Article, error)

	// CreateArticle persists a new article and assigns its ID and initial
	// version.
	CreateArticle(ctx context.Context, a *article.Article) error

	// UpdateArticle writes the full mutable state of the article if and only
	// if the stored version matches a.Version, then increments a.Version.
	UpdateArticle(ctx context.Context, a *article.Article) error

	// AppendCostEntry appends one ledger entry and folds its estimated and
	// actual cost into the article's derived totals in the same transaction.
	AppendCostEntry(ctx context.Context, articleID string, e article.CostEntry) error

	// ListCostEntries returns the full cost ledger for an article, oldest
	// first.
	ListCostEntries(ctx context.Context, articleID string) ([]article.CostEntry, error)
}
