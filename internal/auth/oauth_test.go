package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/freeeve/holdfast/internal/config"
)

func TestGoogleLoginURL(t *testing.T) {
	p := NewGoogleOAuth(config.GoogleConfig{
		ClientID:    "client-1",
		RedirectURL: "http://localhost:8009/auth/google/callback",
	})
	if !p.Enabled() || p.Name() != "google" {
		t.Fatalf("unexpected provider state enabled=%v name=%s", p.Enabled(), p.Name())
	}

	u, err := url.Parse(p.LoginURL("state-xyz"))
	if err != nil {
		t.Fatalf("parse login url: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "client-1" || q.Get("state") != "state-xyz" {
		t.Errorf("unexpected query %v", q)
	}
	if !strings.Contains(q.Get("scope"), "email") {
		t.Errorf("expected email scope, got %q", q.Get("scope"))
	}

	if NewGoogleOAuth(config.GoogleConfig{}).Enabled() {
		t.Error("provider without a client id should be disabled")
	}
	if NewState() == NewState() {
		t.Error("states should be unique")
	}
}

func TestFetchUserInfo(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"ok", http.StatusOK, `{"id":"g-1","email":"a@example.com","name":"Ada"}`, false},
		{"server error", http.StatusInternalServerError, `oops`, true},
		{"bad json", http.StatusOK, `{`, true},
		{"missing id", http.StatusOK, `{"email":"a@example.com"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewGoogleOAuth(config.GoogleConfig{ClientID: "c"})
			p.userInfoURL = srv.URL
			info, err := p.fetchUserInfo(context.Background(), srv.Client())
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("fetchUserInfo: %v", err)
			}
			if info.ID != "g-1" || info.Name != "Ada" {
				t.Errorf("unexpected info %+v", info)
			}
		})
	}
}
