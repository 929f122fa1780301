// Package ghost implements the publisher port against the Ghost Admin API.
package ghost

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inkpress-ai/inkpress/internal/domain/article"
)

// Publisher posts finalized articles to a Ghost instance.
type Publisher struct {
	baseURL    string
	keyID      string
	secret     []byte
	httpClient *http.Client
}

// NewPublisher creates a Ghost publisher from an Admin API key in the
// "<key id>:<hex secret>" format Ghost hands out.
func NewPublisher(baseURL, adminKey string) (*Publisher, error) {
	id, hexSecret, ok := strings.Cut(adminKey, ":")
	if !ok {
		return nil, fmt.Errorf("ghost admin key must be <id>:<secret>")
	}
	secret, err := hex.DecodeString(hexSecret)
	if err != nil {
		return nil, fmt.Errorf("decode ghost admin secret: %w", err)
	}
	return &Publisher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keyID:      id,
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// token signs a short-lived JWT the way the Ghost Admin API requires:
// HS256, kid header, aud "/admin/", 5 minute lifetime.
func (p *Publisher) token() (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
		"aud": "/admin/",
	})
	t.Header["kid"] = p.keyID
	return t.SignedString(p.secret)
}

type postPayload struct {
	Posts []post `json:"posts"`
}

type post struct {
	Title           string   `json:"title"`
	Markdown        string   `json:"markdown,omitempty"`
	Status          string   `json:"status"`
	Tags            []string `json:"tags,omitempty"`
	MetaTitle       string   `json:"meta_title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
}

type postResponse struct {
	Posts []struct {
		ID string `json:"id"`
	} `json:"posts"`
}

// Publish creates a published post from the article's finalized artifact and
// returns the Ghost post ID.
func (p *Publisher) Publish(ctx context.Context, a *article.Article) (string, error) {
	title := a.Metadata.SEOTitle
	if title == "" {
		title = a.Params.Topic
	}

	body, err := json.Marshal(postPayload{Posts: []post{{
		Title:           title,
		Markdown:        a.Artifact,
		Status:          "published",
		Tags:            a.Metadata.Tags,
		MetaTitle:       a.Metadata.SEOTitle,
		MetaDescription: a.Metadata.SEODescription,
	}}})
	if err != nil {
		return "", fmt.Errorf("marshal post: %w", err)
	}

	tok, err := p.token()
	if err != nil {
		return "", fmt.Errorf("sign ghost token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/ghost/api/admin/posts/", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Ghost "+tok)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ghost publish: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read ghost response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ghost publish: status %d: %s", resp.StatusCode, respBody)
	}

	var parsed postResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal ghost response: %w", err)
	}
	if len(parsed.Posts) == 0 {
		return "", fmt.Errorf("ghost publish: empty posts in response")
	}
	return parsed.Posts[0].ID, nil
}
