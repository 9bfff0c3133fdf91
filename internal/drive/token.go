package drive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"
)

// OAuthConfig builds the oauth2 client configuration for read-only Drive
// access. Per-source tokens are stored in the database; this only identifies
// the application to Google.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drivev3.DriveReadonlyScope},
	}
}

// SaveTokenFunc persists a rotated token pair. Implementations write back to
// the oauth_credentials table.
type SaveTokenFunc func(ctx context.Context, accessToken, refreshToken string, expiresAt time.Time) error

// persistingTokenSource wraps a refreshing TokenSource and writes rotated
// tokens back through save, so the stored credential tracks provider-side
// rotation.
type persistingTokenSource struct {
	ctx    context.Context
	base   oauth2.TokenSource
	save   SaveTokenFunc
	logger *slog.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

// NewTokenSource builds a TokenSource from a stored credential that
// auto-refreshes through cfg and persists rotations via save. Persist
// failures are logged, not propagated: a usable token beats a stored one.
func NewTokenSource(ctx context.Context, cfg *oauth2.Config, accessToken, refreshToken string, expiresAt time.Time, save SaveTokenFunc, logger *slog.Logger) oauth2.TokenSource {
	if logger == nil {
		logger = slog.Default()
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       expiresAt,
	}

	return &persistingTokenSource{
		ctx:    ctx,
		base:   cfg.TokenSource(ctx, token),
		save:   save,
		logger: logger,
		last:   token,
	}
}

// Token returns a valid token, refreshing and persisting it when rotated.
func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	p.mu.Lock()
	rotated := p.last == nil || token.AccessToken != p.last.AccessToken
	p.last = token
	p.mu.Unlock()

	if rotated && p.save != nil {
		if err := p.save(p.ctx, token.AccessToken, token.RefreshToken, token.Expiry); err != nil {
			p.logger.Warn("failed to persist rotated token", "error", err)
		} else {
			p.logger.Debug("persisted rotated token", "expires_at", token.Expiry)
		}
	}

	return token, nil
}
