package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"mykash/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL, 5*time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeEnvelope(w http.ResponseWriter, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"message": message,
		"data":    data,
	})
}

func TestLoginDecodesEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/account/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Identifier string `json:"identifier"`
			PIN        string `json:"pin"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Identifier != "017000" || body.PIN != "1234" {
			writeEnvelope(w, false, "Invalid credentials", nil)
			return
		}
		writeEnvelope(w, true, "Login successful", domain.Account{UserID: "u-1", Name: "Asha", Role: domain.RoleUser})
	})

	c := newTestClient(t, mux)
	acct, msg, err := c.Login(context.Background(), "017000", "1234")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if msg != "Login successful" {
		t.Errorf("message = %q", msg)
	}
	if acct.UserID != "u-1" || acct.Role != domain.RoleUser {
		t.Errorf("account = %+v", acct)
	}
}

func TestBackendRejectionSurfacesMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/account/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, false, "Invalid credentials", nil)
	})

	c := newTestClient(t, mux)
	_, _, err := c.Login(context.Background(), "x", "y")
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want BackendError", err)
	}
	if be.Message != "Invalid credentials" {
		t.Errorf("message = %q", be.Message)
	}
}

func TestNon2xxCarriesStatusText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c := newTestClient(t, mux)
	_, err := c.GetAllUsers(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if se.Code != http.StatusServiceUnavailable || se.Text != "Service Unavailable" {
		t.Errorf("StatusError = %+v", se)
	}
	if se.Error() != "API request failed: Service Unavailable" {
		t.Errorf("Error() = %q", se.Error())
	}
}

func TestSendMoneyCarriesIdempotencyKey(t *testing.T) {
	keys := map[string]bool{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2/transaction/send-money", func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Idempotency-Key")
		if key == "" {
			t.Error("missing idempotency key")
		}
		keys[key] = true
		writeEnvelope(w, true, "Money sent successfully", domain.Transaction{TransactionID: "t-1"})
	})

	c := newTestClient(t, mux)
	payload := SendMoneyPayload{SenderID: "a", ReceiverID: "b", Amount: 50}
	for i := 0; i < 2; i++ {
		if _, _, err := c.SendMoney(context.Background(), payload); err != nil {
			t.Fatalf("SendMoney: %v", err)
		}
	}
	if len(keys) != 2 {
		t.Errorf("got %d distinct keys across attempts, want 2", len(keys))
	}
}

func TestCookiesPersistAcrossRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/account/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "mykash_session", Value: "tok", Path: "/"})
		writeEnvelope(w, true, "Login successful", domain.Account{UserID: "u-1"})
	})
	mux.HandleFunc("/api/v1/admin/user/u-1", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("mykash_session"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(w, true, "User fetched", domain.Account{UserID: "u-1"})
	})

	c := newTestClient(t, mux)
	if _, _, err := c.Login(context.Background(), "a", "b"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := c.GetUser(context.Background(), "u-1"); err != nil {
		t.Fatalf("GetUser after login: %v", err)
	}
}
