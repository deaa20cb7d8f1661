package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"mykash/internal/api"
	"mykash/internal/cache"
	"mykash/internal/domain"
	"mykash/internal/session"
)

type fakeBackend struct {
	users []domain.Account

	sendMoneyCalls int
	cashInCalls    int
	cashOutCalls   int
	requestCalls   int

	lastSendMoney map[string]any
	lastCashIn    map[string]any

	reject string
}

func (b *fakeBackend) handler() http.Handler {
	writeEnvelope := func(w http.ResponseWriter, success bool, message string, data any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": success, "message": message, "data": data})
	}
	mutation := func(calls *int, last *map[string]any, message string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			*calls++
			var payload map[string]any
			json.NewDecoder(r.Body).Decode(&payload)
			if last != nil {
				*last = payload
			}
			if b.reject != "" {
				writeEnvelope(w, false, b.reject, nil)
				return
			}
			writeEnvelope(w, true, message, domain.Transaction{TransactionID: "t-1"})
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, true, "Users fetched", map[string]any{
			"users":      b.users,
			"totalUsers": len(b.users),
		})
	})
	mux.HandleFunc("POST /api/v2/transaction/send-money", mutation(&b.sendMoneyCalls, &b.lastSendMoney, "Money sent successfully"))
	mux.HandleFunc("POST /api/v2/transaction/cash-in", mutation(&b.cashInCalls, &b.lastCashIn, "Cash in successful"))
	mux.HandleFunc("POST /api/v2/transaction/cash-out", mutation(&b.cashOutCalls, nil, "Cash out successful"))
	mux.HandleFunc("POST /api/v2/balance-request/create", mutation(&b.requestCalls, nil, "Balance request created"))
	return mux
}

func newFlow(t *testing.T, b *fakeBackend, user *session.User) *Flow {
	t.Helper()
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)
	client, err := api.NewClient(server.URL, 5*time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewFlow(user, client, cache.New(zap.NewNop()), zap.NewNop())
}

func testUsers() []domain.Account {
	return []domain.Account{
		{UserID: "me", Name: "Me", Role: domain.RoleUser, IsActive: true},
		{UserID: "u-2", Name: "Rahim", Role: domain.RoleUser, IsActive: true},
		{UserID: "u-3", Name: "Karim", Role: domain.RoleUser, IsActive: false},
		{UserID: "ag-1", Name: "Agent One", Role: domain.RoleAgent, IsActive: true},
		{UserID: "ag-2", Name: "Agent Two", Role: domain.RoleAgent, IsActive: false},
	}
}

func TestSelectRejectsServiceForRole(t *testing.T) {
	b := &fakeBackend{users: testUsers()}
	user := &session.User{ID: "me", Role: domain.RoleUser, Balance: 100}
	flow := newFlow(t, b, user)

	if err := flow.Select(context.Background(), domain.ServiceCashIn); !errors.Is(err, domain.ErrServiceNotAllowed) {
		t.Errorf("user selecting cashIn = %v, want ErrServiceNotAllowed", err)
	}
	if flow.State() != StateIdle {
		t.Errorf("state = %v after rejected select, want idle", flow.State())
	}
}

func TestSendMoneyCandidatesExcludeSelf(t *testing.T) {
	b := &fakeBackend{users: testUsers()}
	user := &session.User{ID: "me", Role: domain.RoleUser, Balance: 100}
	flow := newFlow(t, b, user)

	if err := flow.Select(context.Background(), domain.ServiceSendMoney); err != nil {
		t.Fatalf("Select: %v", err)
	}
	for _, c := range flow.Candidates() {
		if c.UserID == "me" {
			t.Error("candidate list includes the signed-in user")
		}
		if c.Role != domain.RoleUser {
			t.Errorf("candidate %s has role %s", c.UserID, c.Role)
		}
	}
	if len(flow.Candidates()) != 2 {
		t.Errorf("candidates = %d, want 2", len(flow.Candidates()))
	}
}

func TestCashOutCandidatesAreActiveAgents(t *testing.T) {
	b := &fakeBackend{users: testUsers()}
	user := &session.User{ID: "me", Role: domain.RoleUser, Balance: 100}
	flow := newFlow(t, b, user)

	if err := flow.Select(context.Background(), domain.ServiceCashOut); err != nil {
		t.Fatalf("Select: %v", err)
	}
	cands := flow.Candidates()
	if len(cands) != 1 || cands[0].UserID != "ag-1" {
		t.Errorf("candidates = %+v, want only the active agent", cands)
	}
}

func TestUsableBalanceBlocksWithoutNetworkCall(t *testing.T) {
	b := &fakeBackend{users: testUsers()}
	user := &session.User{ID: "me", Role: domain.RoleUser, Balance: 100}
	flow := newFlow(t, b, user)

	ctx := context.Background()
	if err := flow.Select(ctx, domain.ServiceSendMoney); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := flow.Pick("u-2"); err != nil {
		t.Fatalf("Pick: %v", err)
	}

	// Balance 100, reserve 10: 95 exceeds the usable 90.
	_, err := flow.Submit(ctx, 95, "")
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("Submit(95) = %v, want ErrInsufficientBalance", err)
	}
	if b.sendMoneyCalls != 0 {
		t.Errorf("mutation fired %d times for blocked submission, want 0", b.sendMoneyCalls)
	}
	if flow.State() != StateTargetSelected {
		t.Errorf("state changed after blocked submission: %v", flow.State())
	}

	msg, err := flow.Submit(ctx, 50, "")
	if err != nil {
		t.Fatalf("Submit(50): %v", err)
	}
	if msg != "Money sent successfully" {
		t.Errorf("message = %q", msg)
	}
	if b.sendMoneyCalls != 1 {
		t.Errorf("mutation fired %d times, want 1", b.sendMoneyCalls)
	}
	if b.lastSendMoney["senderId"] != "me" || b.lastSendMoney["receiverId"] != "u-2" || b.lastSendMoney["amount"] != float64(50) {
		t.Errorf("payload = %v", b.lastSendMoney)
	}
	if flow.State() != StateIdle {
		t.Errorf("state = %v after success, want idle", flow.State())
	}
}

func TestCashInPayload(t *testing.T) {
	b := &fakeBackend{users: testUsers()}
	agent := &session.User{ID: "ag-1", Role: domain.RoleAgent, Balance: 1000}
	flow := newFlow(t, b, agent)

	ctx := context.Background()
	if err := flow.Select(ctx, domain.ServiceCashIn); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := flow.Pick("u-2"); err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if _, err := flow.Submit(ctx, 20, "1234"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := map[string]any{"agentId": "ag-1", "userId": "u-2", "amount": float64(20), "agentPin": "1234"}
	for k, v := range want {
		if b.lastCashIn[k] != v {
			t.Errorf("payload[%s] = %v, want %v", k, b.lastCashIn[k], v)
		}
	}
}

func TestSubmitRequiresTargetAndPin(t *testing.T) {
	b := &fakeBackend{users: testUsers()}
	user := &session.User{ID: "me", Role: domain.RoleUser, Balance: 100}
	flow := newFlow(t, b, user)

	ctx := context.Background()
	if _, err := flow.Submit(ctx, 10, ""); !errors.Is(err, domain.ErrNoService) {
		t.Errorf("Submit with no service = %v, want ErrNoService", err)
	}

	flow.Select(ctx, domain.ServiceCashOut)
	if _, err := flow.Submit(ctx, 10, "1234"); !errors.Is(err, domain.ErrNoTarget) {
		t.Errorf("Submit with no target = %v, want ErrNoTarget", err)
	}
	flow.Pick("ag-1")
	if _, err := flow.Submit(ctx, 10, ""); !errors.Is(err, domain.ErrPinRequired) {
		t.Errorf("Submit with no pin = %v, want ErrPinRequired", err)
	}
	if b.cashOutCalls != 0 {
		t.Errorf("mutation fired %d times for invalid submissions", b.cashOutCalls)
	}
}

func TestBalanceRequestSkipsTarget(t *testing.T) {
	b := &fakeBackend{users: testUsers()}
	agent := &session.User{ID: "ag-1", Role: domain.RoleAgent, Balance: 1000}
	flow := newFlow(t, b, agent)

	ctx := context.Background()
	if err := flow.Select(ctx, domain.ServiceBalanceRequest); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(flow.Candidates()) != 0 {
		t.Errorf("balanceRequest loaded %d candidates, want 0", len(flow.Candidates()))
	}
	if _, err := flow.Submit(ctx, 500, ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if b.requestCalls != 1 {
		t.Errorf("create called %d times, want 1", b.requestCalls)
	}
}

func TestFailedSubmitAllowsResubmission(t *testing.T) {
	b := &fakeBackend{users: testUsers(), reject: "insufficient funds"}
	user := &session.User{ID: "me", Role: domain.RoleUser, Balance: 100}
	flow := newFlow(t, b, user)

	ctx := context.Background()
	flow.Select(ctx, domain.ServiceSendMoney)
	flow.Pick("u-2")

	_, err := flow.Submit(ctx, 50, "")
	var be *api.BackendError
	if !errors.As(err, &be) || be.Message != "insufficient funds" {
		t.Fatalf("Submit = %v, want backend rejection", err)
	}
	if flow.State() != StateTargetSelected {
		t.Errorf("state = %v after failure, want target still selected", flow.State())
	}

	b.reject = ""
	if _, err := flow.Submit(ctx, 50, ""); err != nil {
		t.Fatalf("resubmission: %v", err)
	}
	if b.sendMoneyCalls != 2 {
		t.Errorf("mutation fired %d times, want 2", b.sendMoneyCalls)
	}
}
