package federated

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

func newBrokerWithServer(t *testing.T, handler http.HandlerFunc) *GoogleBroker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b := NewGoogleBroker("client-1", "secret", "https://app.example.com/callback")
	b.tokenInfoURL = srv.URL
	return b
}

func TestVerify_Success(t *testing.T) {
	b := newBrokerWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm error: %v", err)
		}
		if got := r.PostForm.Get("id_token"); got != "tok-1" {
			t.Errorf("unexpected id_token %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"aud":"client-1","sub":"g-123","email":"alice@example.com","email_verified":"true","name":"Alice","exp":"1999999999"}`))
	})

	id, err := b.Verify(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if id.Subject != "g-123" || id.Email != "alice@example.com" || id.Name != "Alice" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if !id.EmailVerified {
		t.Fatal("want EmailVerified=true")
	}
}

func TestVerify_WrongAudience(t *testing.T) {
	b := newBrokerWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"aud":"someone-else","sub":"g-123","email":"alice@example.com","email_verified":"true"}`))
	})

	_, err := b.Verify(context.Background(), "tok-1")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want common.ErrInvalidToken, got %v", err)
	}
}

func TestVerify_ProviderRejectsToken(t *testing.T) {
	b := newBrokerWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_token"}`, http.StatusBadRequest)
	})

	_, err := b.Verify(context.Background(), "garbage")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want common.ErrInvalidToken, got %v", err)
	}
}

func TestVerify_UnverifiedEmailReported(t *testing.T) {
	b := newBrokerWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"aud":"client-1","sub":"g-9","email":"bob@example.com","email_verified":"false","name":"Bob"}`))
	})

	id, err := b.Verify(context.Background(), "tok-2")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if id.EmailVerified {
		t.Fatal("want EmailVerified=false")
	}
}

func TestVerify_MissingEmail(t *testing.T) {
	b := newBrokerWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"aud":"client-1","sub":"g-9"}`))
	})

	_, err := b.Verify(context.Background(), "tok-3")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want common.ErrInvalidToken, got %v", err)
	}
}

func TestAuthURL_ContainsState(t *testing.T) {
	b := NewGoogleBroker("client-1", "secret", "https://app.example.com/callback")

	u := b.AuthURL("state-xyz")
	if u == "" {
		t.Fatal("empty auth url")
	}
	if want := "state=state-xyz"; !strings.Contains(u, want) {
		t.Fatalf("auth url missing %q: %s", want, u)
	}
}
