package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

const (
	DefaultCallbackAddr = "localhost:8085"
	defaultFlowTimeout  = 5 * time.Minute
)

type AuthorizationFlow interface {
	Authorize(ctx context.Context) (*oauth2.Token, error)
}

func NewOAuthConfig(clientID, clientSecret, callbackAddr string) *oauth2.Config {
	if callbackAddr == "" {
		callbackAddr = DefaultCallbackAddr
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
		RedirectURL:  "http://" + callbackAddr + "/callback",
	}
}

// LocalFlow runs the installed-app consent flow: it opens the consent page in
// a browser and waits for the redirect on a local callback server.
type LocalFlow struct {
	config  *oauth2.Config
	addr    string
	timeout time.Duration
	openURL func(string) error
	// Prompt is told the consent URL in case the browser does not open.
	Prompt func(url string)
}

func NewLocalFlow(config *oauth2.Config, addr string) *LocalFlow {
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	return &LocalFlow{
		config:  config,
		addr:    addr,
		timeout: defaultFlowTimeout,
		openURL: browser.OpenURL,
		Prompt: func(url string) {
			slog.Info("Open this URL to authorize YouTube access", "url", url)
		},
	}
}

func (f *LocalFlow) Authorize(ctx context.Context) (*oauth2.Token, error) {
	state := uuid.NewString()
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	listener, err := net.Listen("tcp", f.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	server := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler:           f.callbackHandler(state, codeChan, errChan),
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := f.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if f.Prompt != nil {
		f.Prompt(authURL)
	}
	if f.openURL != nil {
		_ = f.openURL(authURL)
	}

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	select {
	case code := <-codeChan:
		token, err := f.config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange code: %w", err)
		}
		return token, nil

	case err := <-errChan:
		return nil, err

	case <-ctx.Done():
		return nil, ctx.Err()

	case <-timer.C:
		return nil, fmt.Errorf("authentication timed out")
	}
}

func (f *LocalFlow) callbackHandler(state string, codeChan chan<- string, errChan chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/callback" {
			http.NotFound(w, r)
			return
		}

		query := r.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		code := query.Get("code")
		if code == "" {
			select {
			case errChan <- fmt.Errorf("no code in callback: %s", query.Get("error")):
			default:
			}
			_, _ = fmt.Fprintf(w, "<html><body><h1>Error</h1><p>No authorization code received.</p></body></html>")
			return
		}

		select {
		case codeChan <- code:
		default:
		}
		_, _ = fmt.Fprintf(w, "<html><body><h1>Success!</h1><p>You can close this window and return to the terminal.</p></body></html>")
	})
}
