package publish

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

type memoryStore struct {
	token *oauth2.Token
	saved []*oauth2.Token
}

func (s *memoryStore) Load() (*oauth2.Token, error) {
	if s.token == nil {
		return nil, ErrNoCredential
	}
	return s.token, nil
}

func (s *memoryStore) Save(token *oauth2.Token) error {
	s.token = token
	s.saved = append(s.saved, token)
	return nil
}

func (s *memoryStore) IsValid(token *oauth2.Token) bool {
	return token != nil && token.Valid()
}

type fakeFlow struct {
	token *oauth2.Token
	err   error
	calls int
}

func (f *fakeFlow) Authorize(ctx context.Context) (*oauth2.Token, error) {
	f.calls++
	return f.token, f.err
}

func newTokenServer(t *testing.T, status int, refreshes *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(refreshes, 1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", r.Form.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"access_token":"refreshed","token_type":"Bearer","expires_in":3600}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAuthenticatorToken(t *testing.T) {
	valid := func() *oauth2.Token {
		return &oauth2.Token{AccessToken: "stored", RefreshToken: "r1", Expiry: time.Now().Add(time.Hour)}
	}
	expired := func() *oauth2.Token {
		return &oauth2.Token{AccessToken: "old", RefreshToken: "r1", Expiry: time.Now().Add(-time.Hour)}
	}
	flowToken := &oauth2.Token{AccessToken: "authorized", RefreshToken: "r2", Expiry: time.Now().Add(time.Hour)}

	tests := []struct {
		name          string
		stored        *oauth2.Token
		refreshStatus int
		flow          *fakeFlow
		wantAccess    string
		wantRefresh   string
		wantRefreshes int32
		wantFlowCalls int
		wantSaves     int
		wantErr       error
	}{
		{
			name:        "validStoredToken",
			stored:      valid(),
			flow:        &fakeFlow{},
			wantAccess:  "stored",
			wantRefresh: "r1",
		},
		{
			name:          "expiredTokenRefreshed",
			stored:        expired(),
			refreshStatus: http.StatusOK,
			flow:          &fakeFlow{},
			wantAccess:    "refreshed",
			wantRefresh:   "r1",
			wantRefreshes: 1,
			wantSaves:     1,
		},
		{
			name:          "refreshFailsFallsBackToFlow",
			stored:        expired(),
			refreshStatus: http.StatusBadRequest,
			flow:          &fakeFlow{token: flowToken},
			wantAccess:    "authorized",
			wantRefresh:   "r2",
			wantRefreshes: 1,
			wantFlowCalls: 1,
			wantSaves:     1,
		},
		{
			name:          "noTokenRunsFlow",
			flow:          &fakeFlow{token: flowToken},
			wantAccess:    "authorized",
			wantRefresh:   "r2",
			wantFlowCalls: 1,
			wantSaves:     1,
		},
		{
			name:          "flowFails",
			flow:          &fakeFlow{err: errors.New("user denied")},
			wantFlowCalls: 1,
			wantErr:       ErrNotAuthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var refreshes int32
			status := tt.refreshStatus
			if status == 0 {
				status = http.StatusOK
			}
			server := newTokenServer(t, status, &refreshes)

			config := &oauth2.Config{
				ClientID:     "client",
				ClientSecret: "secret",
				Endpoint:     oauth2.Endpoint{TokenURL: server.URL, AuthStyle: oauth2.AuthStyleInParams},
			}
			store := &memoryStore{token: tt.stored}
			auth := NewOAuthAuthenticator(config, store, tt.flow)

			got, err := auth.Token(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Token() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Token() error = %v", err)
				}
				if got.AccessToken != tt.wantAccess {
					t.Errorf("AccessToken = %q, want %q", got.AccessToken, tt.wantAccess)
				}
				if got.RefreshToken != tt.wantRefresh {
					t.Errorf("RefreshToken = %q, want %q", got.RefreshToken, tt.wantRefresh)
				}
			}

			if n := atomic.LoadInt32(&refreshes); n != tt.wantRefreshes {
				t.Errorf("refresh requests = %d, want %d", n, tt.wantRefreshes)
			}
			if tt.flow.calls != tt.wantFlowCalls {
				t.Errorf("flow calls = %d, want %d", tt.flow.calls, tt.wantFlowCalls)
			}
			if len(store.saved) != tt.wantSaves {
				t.Errorf("saves = %d, want %d", len(store.saved), tt.wantSaves)
			}
		})
	}
}

func TestAuthenticatorWithoutFlow(t *testing.T) {
	auth := NewOAuthAuthenticator(&oauth2.Config{}, &memoryStore{}, nil)
	if _, err := auth.Authenticate(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Authenticate() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestAuthenticateAddsBearer(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	store := &memoryStore{token: &oauth2.Token{AccessToken: "abc", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}}
	client, err := NewOAuthAuthenticator(&oauth2.Config{}, store, nil).Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer abc" {
		t.Errorf("Authorization = %q, want Bearer abc", gotAuth)
	}
}
