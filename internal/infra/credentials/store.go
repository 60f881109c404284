package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"imagerelay/internal/infra"
	"imagerelay/internal/sqlinline"
)

// ProviderUpstream names the generation API's key in integration_tokens.
const ProviderUpstream = "image_upstream"

// Store reads and writes provider API keys.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// UpstreamAPIKey returns the stored generation API key, or "" when none is stored.
func (s *Store) UpstreamAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderUpstream)
}

// SetUpstreamAPIKey stores or rotates the generation API key. props are merged into
// the token's properties.
func (s *Store) SetUpstreamAPIKey(ctx context.Context, key string, props map[string]any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("credentials: upstream api key is required")
	}
	return s.upsert(ctx, ProviderUpstream, key, props)
}

// EnsureSchema creates the integration_tokens table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QEnsureIntegrationTokens); err != nil {
		return fmt.Errorf("credentials: ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("credentials: load %s token: %w", provider, err)
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("credentials: encode properties: %w", err)
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw); err != nil {
		return fmt.Errorf("credentials: store %s token: %w", provider, err)
	}
	return nil
}
