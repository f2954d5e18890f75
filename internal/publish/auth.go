package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Authenticator produces an HTTP client carrying valid upload credentials.
type Authenticator interface {
	Authenticate(ctx context.Context) (*http.Client, error)
}

type OAuthAuthenticator struct {
	config *oauth2.Config
	store  CredentialStore
	flow   AuthorizationFlow
}

func NewOAuthAuthenticator(config *oauth2.Config, store CredentialStore, flow AuthorizationFlow) *OAuthAuthenticator {
	return &OAuthAuthenticator{
		config: config,
		store:  store,
		flow:   flow,
	}
}

// Authenticate uses the stored token when valid, refreshes it when expired
// and otherwise runs the authorization flow once. New tokens are persisted.
func (a *OAuthAuthenticator) Authenticate(ctx context.Context) (*http.Client, error) {
	token, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}
	return a.config.Client(ctx, token), nil
}

func (a *OAuthAuthenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	token, err := a.store.Load()
	if err != nil && !errors.Is(err, ErrNoCredential) {
		slog.Warn("Stored credential unreadable", "error", err)
	}

	if token != nil && a.store.IsValid(token) {
		return token, nil
	}

	if token != nil && token.RefreshToken != "" {
		refreshed, err := a.config.TokenSource(ctx, token).Token()
		if err == nil {
			if refreshed.RefreshToken == "" {
				refreshed.RefreshToken = token.RefreshToken
			}
			if err := a.store.Save(refreshed); err != nil {
				return nil, fmt.Errorf("persist credential: %w", err)
			}
			slog.Debug("Credential refreshed")
			return refreshed, nil
		}
		slog.Warn("Credential refresh failed, starting authorization", "error", err)
	}

	if a.flow == nil {
		return nil, ErrNotAuthenticated
	}

	token, err = a.flow.Authorize(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	if err := a.store.Save(token); err != nil {
		return nil, fmt.Errorf("persist credential: %w", err)
	}
	return token, nil
}
