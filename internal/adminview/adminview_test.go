package adminview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"mykash/internal/api"
	"mykash/internal/cache"
	"mykash/internal/domain"
)

type adminBackend struct {
	users    []domain.Account
	pending  []domain.BalanceRequest
	blockErr bool

	userFetches int
}

func (b *adminBackend) handler() http.Handler {
	write := func(w http.ResponseWriter, success bool, message string, data any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": success, "message": message, "data": data})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		b.userFetches++
		active, inactive := 0, 0
		for _, u := range b.users {
			if u.IsActive {
				active++
			} else {
				inactive++
			}
		}
		write(w, true, "Users fetched", map[string]any{
			"users":         b.users,
			"totalUsers":    len(b.users),
			"activeUsers":   active,
			"inactiveUsers": inactive,
		})
	})
	mux.HandleFunc("GET /api/v1/admin/total-balance", func(w http.ResponseWriter, r *http.Request) {
		write(w, true, "Balance fetched", map[string]any{"totalBalance": 1500.0})
	})
	mux.HandleFunc("GET /api/v1/admin/total-balance/user", func(w http.ResponseWriter, r *http.Request) {
		write(w, true, "Balance fetched", map[string]any{"totalUserBalance": 500.0})
	})
	mux.HandleFunc("GET /api/v1/admin/total-balance/agent", func(w http.ResponseWriter, r *http.Request) {
		write(w, true, "Balance fetched", map[string]any{"totalAgentBalance": 1000.0})
	})
	mux.HandleFunc("PUT /api/v1/admin/approve-agent/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/v1/admin/approve-agent/"):]
		for i := range b.users {
			if b.users[i].UserID == id {
				b.users[i].IsActive = true
				write(w, true, "Agent approved", b.users[i])
				return
			}
		}
		write(w, false, "account not found", nil)
	})
	mux.HandleFunc("PUT /api/v1/admin/block-user/", func(w http.ResponseWriter, r *http.Request) {
		if b.blockErr {
			write(w, false, "account not found", nil)
			return
		}
		id := r.URL.Path[len("/api/v1/admin/block-user/"):]
		for i := range b.users {
			if b.users[i].UserID == id {
				b.users[i].IsBlocked = !b.users[i].IsBlocked
				write(w, true, "User updated", b.users[i])
				return
			}
		}
		write(w, false, "account not found", nil)
	})
	mux.HandleFunc("GET /api/v2/balance-request/pending", func(w http.ResponseWriter, r *http.Request) {
		write(w, true, "Requests fetched", b.pending)
	})
	mux.HandleFunc("POST /api/v2/balance-request/approve", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RequestID string `json:"requestId"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		for i, req := range b.pending {
			if req.RequestID == body.RequestID {
				req.Status = domain.BalanceRequestApproved
				b.pending = append(b.pending[:i], b.pending[i+1:]...)
				write(w, true, "Balance request approved", map[string]any{
					"transaction":    domain.Transaction{TransactionID: "t-1", Type: domain.ServiceBalanceRequest},
					"balanceRequest": req,
				})
				return
			}
		}
		write(w, false, "request not found", nil)
	})
	return mux
}

func newService(t *testing.T, b *adminBackend) *Service {
	t.Helper()
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)
	client, err := api.NewClient(server.URL, 5*time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewService(client, cache.New(zap.NewNop()), zap.NewNop())
}

func adminUsers() []domain.Account {
	return []domain.Account{
		{UserID: "u-1", Role: domain.RoleUser, IsActive: true},
		{UserID: "u-2", Role: domain.RoleUser, IsActive: true},
		{UserID: "u-3", Role: domain.RoleUser, IsActive: true},
		{UserID: "ag-1", Role: domain.RoleAgent, IsActive: true},
		{UserID: "ag-2", Role: domain.RoleAgent, IsActive: false},
	}
}

func TestOverviewDerivesCounts(t *testing.T) {
	b := &adminBackend{users: adminUsers()}
	svc := newService(t, b)

	ov, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.TotalBalance != 1500 || ov.TotalUserBalance != 500 || ov.TotalAgentBalance != 1000 {
		t.Errorf("balances = %v/%v/%v", ov.TotalBalance, ov.TotalUserBalance, ov.TotalAgentBalance)
	}
	if ov.TotalUsers != 5 || ov.TotalAgents != 2 || ov.RegularUsers != 3 {
		t.Errorf("counts = total %d, agents %d, regular %d", ov.TotalUsers, ov.TotalAgents, ov.RegularUsers)
	}
	if len(ov.PendingAgents) != 1 || ov.PendingAgents[0].UserID != "ag-2" {
		t.Errorf("pending agents = %+v", ov.PendingAgents)
	}
}

func TestApproveAgentRefreshesOverview(t *testing.T) {
	b := &adminBackend{users: adminUsers()}
	svc := newService(t, b)

	ctx := context.Background()
	if _, err := svc.Overview(ctx); err != nil {
		t.Fatalf("Overview: %v", err)
	}

	acct, msg, err := svc.ApproveAgent(ctx, "ag-2")
	if err != nil {
		t.Fatalf("ApproveAgent: %v", err)
	}
	if msg != "Agent approved" || !acct.IsActive {
		t.Errorf("approve = (%+v, %q)", acct, msg)
	}

	ov, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview after approve: %v", err)
	}
	if len(ov.PendingAgents) != 0 {
		t.Errorf("pending agents after approval = %+v", ov.PendingAgents)
	}
	if b.userFetches != 2 {
		t.Errorf("user list fetched %d times, want 2 (invalidated by approval)", b.userFetches)
	}
}

func TestApproveBalanceRequestEmptiesPending(t *testing.T) {
	b := &adminBackend{
		users:   adminUsers(),
		pending: []domain.BalanceRequest{{RequestID: "r-1", UserID: "ag-1", Amount: 500, Status: domain.BalanceRequestPending}},
	}
	svc := newService(t, b)

	ctx := context.Background()
	reqs, err := svc.PendingBalanceRequests(ctx)
	if err != nil || len(reqs) != 1 {
		t.Fatalf("PendingBalanceRequests = (%+v, %v)", reqs, err)
	}

	res, msg, err := svc.ApproveBalanceRequest(ctx, "r-1")
	if err != nil {
		t.Fatalf("ApproveBalanceRequest: %v", err)
	}
	if msg != "Balance request approved" || res.Transaction.Type != domain.ServiceBalanceRequest {
		t.Errorf("approve = (%+v, %q)", res, msg)
	}

	reqs, err = svc.PendingBalanceRequests(ctx)
	if err != nil {
		t.Fatalf("PendingBalanceRequests after approve: %v", err)
	}
	if len(reqs) != 0 {
		t.Errorf("pending after approve = %+v", reqs)
	}
}

func TestToggleBlockRollsBackOnFailure(t *testing.T) {
	b := &adminBackend{users: adminUsers()}
	svc := newService(t, b)

	ctx := context.Background()
	acct := domain.Account{UserID: "u-1", Role: domain.RoleUser}

	updated, err := svc.ToggleBlock(ctx, acct)
	if err != nil {
		t.Fatalf("ToggleBlock: %v", err)
	}
	if !updated.IsBlocked {
		t.Error("account not blocked after successful toggle")
	}

	b.blockErr = true
	reverted, err := svc.ToggleBlock(ctx, updated)
	if err == nil {
		t.Fatal("expected toggle failure")
	}
	if reverted.IsBlocked != updated.IsBlocked {
		t.Errorf("blocked flag = %v after failed toggle, want unchanged %v", reverted.IsBlocked, updated.IsBlocked)
	}
}
