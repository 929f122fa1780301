package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkpress-ai/inkpress/internal/domain"
	"github.com/inkpress-ai/inkpress/internal/domain/article"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// articleColumns is the SELECT column list for articles queries.
const articleColumns = `id, topic, audience, keywords, target_word_count, style, tone,
	quality_preference, model_overrides, status, current_phase, refinement_count, max_refinements,
	phase_outputs, models_used, total_cost_estimated, total_cost_actual,
	quality_score, quality_feedback, quality_threshold, metadata, artifact, post_id, max_budget,
	error, version, created_at, updated_at, completed_at`

func (s *Store) ListArticles(ctx context.Context) ([]article.Article, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM articles ORDER BY created_at DESC`, articleColumns))
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []article.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (s *Store) GetArticle(ctx context.Context, id string) (*article.Article, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM articles WHERE id = $1`, articleColumns), id)

	a, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get article %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}
	return &a, nil
}

func (s *Store) CreateArticle(ctx context.Context, a *article.Article) error {
	cols, err := marshalArticle(a)
	if err != nil {
		return fmt.Errorf("create article: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO articles (topic, audience, keywords, target_word_count, style, tone,
		        quality_preference, model_overrides, status, current_phase, max_refinements,
		        total_cost_estimated, quality_threshold, max_budget)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, version, created_at, updated_at`,
		a.Params.Topic, a.Params.Audience, cols.keywords, a.Params.TargetWordCount,
		a.Params.Style, a.Params.Tone, a.QualityPreference, cols.overrides,
		string(a.Status), string(a.CurrentPhase), a.MaxRefinements,
		a.TotalCostEstimated, a.QualityThreshold, a.MaxBudget).
		Scan(&a.ID, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

// UpdateArticle writes all mutable columns guarded by a version check.
// A zero-row update means another writer advanced the version first.
func (s *Store) UpdateArticle(ctx context.Context, a *article.Article) error {
	cols, err := marshalArticle(a)
	if err != nil {
		return fmt.Errorf("update article %s: %w", a.ID, err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE articles SET status = $2, current_phase = $3, refinement_count = $4,
		        phase_outputs = $5, models_used = $6, quality_score = $7, quality_feedback = $8,
		        metadata = $9, artifact = $10, post_id = $11, error = $12,
		        completed_at = $13, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $14`,
		a.ID, string(a.Status), string(a.CurrentPhase), a.RefinementCount,
		cols.phaseOutputs, cols.modelsUsed, a.QualityScore, cols.feedback,
		cols.metadata, a.Artifact, a.PostID, cols.errJSON,
		a.CompletedAt, a.Version)
	if err != nil {
		return fmt.Errorf("update article %s: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update article %s: %w", a.ID, domain.ErrConflict)
	}
	a.Version++
	return nil
}

// AppendCostEntry inserts a ledger row and folds its cost into the article
// totals in one transaction, so totals and ledger never diverge.
func (s *Store) AppendCostEntry(ctx context.Context, articleID string, e article.CostEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("append cost entry: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx,
		`INSERT INTO cost_entries (article_id, phase, model, estimated_cost, actual_cost, success)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		articleID, string(e.Phase), e.Model, e.EstimatedCost, e.ActualCost, e.Success)
	if err != nil {
		return fmt.Errorf("append cost entry: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE articles SET total_cost_estimated = total_cost_estimated + $2,
		        total_cost_actual = total_cost_actual + $3, updated_at = now()
		 WHERE id = $1`,
		articleID, e.EstimatedCost, e.ActualCost)
	if err != nil {
		return fmt.Errorf("fold cost totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fold cost totals for %s: %w", articleID, domain.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("append cost entry: %w", err)
	}
	return nil
}

func (s *Store) ListCostEntries(ctx context.Context, articleID string) ([]article.CostEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, phase, model, estimated_cost, actual_cost, success, created_at
		 FROM cost_entries WHERE article_id = $1 ORDER BY created_at ASC`, articleID)
	if err != nil {
		return nil, fmt.Errorf("list cost entries: %w", err)
	}
	defer rows.Close()

	var entries []article.CostEntry
	for rows.Next() {
		var e article.CostEntry
		var phase string
		if err := rows.Scan(&e.ID, &phase, &e.Model, &e.EstimatedCost, &e.ActualCost, &e.Success, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cost entry: %w", err)
		}
		e.Phase = article.Phase(phase)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// articleJSON holds the marshalled JSONB columns of an article.
type articleJSON struct {
	keywords     []byte
	overrides    []byte
	phaseOutputs []byte
	modelsUsed   []byte
	feedback     []byte
	metadata     []byte
	errJSON      any
}

func marshalArticle(a *article.Article) (articleJSON, error) {
	var cols articleJSON
	var err error

	if cols.keywords, err = json.Marshal(orEmpty(a.Params.Keywords)); err != nil {
		return cols, fmt.Errorf("marshal keywords: %w", err)
	}
	if cols.overrides, err = json.Marshal(orEmptyMap(a.ModelOverrides)); err != nil {
		return cols, fmt.Errorf("marshal model overrides: %w", err)
	}
	if cols.phaseOutputs, err = json.Marshal(orEmpty(a.PhaseOutputs)); err != nil {
		return cols, fmt.Errorf("marshal phase outputs: %w", err)
	}
	if cols.modelsUsed, err = json.Marshal(orEmptyMap(a.ModelsUsed)); err != nil {
		return cols, fmt.Errorf("marshal models used: %w", err)
	}
	if cols.feedback, err = json.Marshal(orEmpty(a.QualityFeedback)); err != nil {
		return cols, fmt.Errorf("marshal quality feedback: %w", err)
	}
	if cols.metadata, err = json.Marshal(a.Metadata); err != nil {
		return cols, fmt.Errorf("marshal metadata: %w", err)
	}
	if a.Error != nil {
		b, err := json.Marshal(a.Error)
		if err != nil {
			return cols, fmt.Errorf("marshal error: %w", err)
		}
		cols.errJSON = b
	}
	return cols, nil
}

func scanArticle(scanner scannable) (article.Article, error) {
	var a article.Article
	var status, phase string
	var keywords, overrides, phaseOutputs, modelsUsed, feedback, metadata []byte
	var errJSON []byte
	var completedAt *time.Time

	err := scanner.Scan(
		&a.ID, &a.Params.Topic, &a.Params.Audience, &keywords, &a.Params.TargetWordCount,
		&a.Params.Style, &a.Params.Tone, &a.QualityPreference, &overrides,
		&status, &phase, &a.RefinementCount, &a.MaxRefinements,
		&phaseOutputs, &modelsUsed, &a.TotalCostEstimated, &a.TotalCostActual,
		&a.QualityScore, &feedback, &a.QualityThreshold, &metadata,
		&a.Artifact, &a.PostID, &a.MaxBudget, &errJSON,
		&a.Version, &a.CreatedAt, &a.UpdatedAt, &completedAt,
	)
	if err != nil {
		return a, err
	}

	a.Status = article.Status(status)
	a.CurrentPhase = article.Phase(phase)
	a.CompletedAt = completedAt

	if err := json.Unmarshal(keywords, &a.Params.Keywords); err != nil {
		return a, fmt.Errorf("unmarshal keywords: %w", err)
	}
	if err := json.Unmarshal(overrides, &a.ModelOverrides); err != nil {
		return a, fmt.Errorf("unmarshal model overrides: %w", err)
	}
	if err := json.Unmarshal(phaseOutputs, &a.PhaseOutputs); err != nil {
		return a, fmt.Errorf("unmarshal phase outputs: %w", err)
	}
	if err := json.Unmarshal(modelsUsed, &a.ModelsUsed); err != nil {
		return a, fmt.Errorf("unmarshal models used: %w", err)
	}
	if err := json.Unmarshal(feedback, &a.QualityFeedback); err != nil {
		return a, fmt.Errorf("unmarshal quality feedback: %w", err)
	}
	if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
		return a, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if len(errJSON) > 0 {
		a.Error = &article.Error{}
		if err := json.Unmarshal(errJSON, a.Error); err != nil {
			return a, fmt.Errorf("unmarshal error: %w", err)
		}
	}
	return a, nil
}
