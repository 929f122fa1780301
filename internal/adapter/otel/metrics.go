package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "inkpress"

// Metrics holds all InkPress metric instruments.
type Metrics struct {
	ArticlesCreated   metric.Int64Counter
	ArticlesPublished metric.Int64Counter
	ArticlesFailed    metric.Int64Counter
	Refinements       metric.Int64Counter
	PhaseDuration     metric.Float64Histogram
	PhaseCost         metric.Float64Histogram
	QualityScore      metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ArticlesCreated, err = meter.Int64Counter("inkpress.articles.created",
		metric.WithDescription("Number of articles created"))
	if err != nil {
		return nil, err
	}

	m.ArticlesPublished, err = meter.Int64Counter("inkpress.articles.published",
		metric.WithDescription("Number of articles published"))
	if err != nil {
		return nil, err
	}

	m.ArticlesFailed, err = meter.Int64Counter("inkpress.articles.failed",
		metric.WithDescription("Number of articles that terminated in failure"))
	if err != nil {
		return nil, err
	}

	m.Refinements, err = meter.Int64Counter("inkpress.refinements",
		metric.WithDescription("Number of refinement loop iterations"))
	if err != nil {
		return nil, err
	}

	m.PhaseDuration, err = meter.Float64Histogram("inkpress.phase.duration_seconds",
		metric.WithDescription("Phase duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.PhaseCost, err = meter.Float64Histogram("inkpress.phase.cost_usd",
		metric.WithDescription("Per-phase actual cost in USD"))
	if err != nil {
		return nil, err
	}

	m.QualityScore, err = meter.Float64Histogram("inkpress.quality.score",
		metric.WithDescription("Rubric score per assessment"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
