// Package publisher defines the publish collaborator port (interface).
package publisher

import (
	"context"

	"github.com/inkpress-ai/inkpress/internal/domain/article"
)

// Publisher hands a finalized article to the external CMS. Invoked exactly
// once per article, only on the approved -> published transition; a failure
// is terminal for the pipeline (no automatic retry past human sign-off).
type Publisher interface {
	Publish(ctx context.Context, a *article.Article) (postID string, err error)
}
