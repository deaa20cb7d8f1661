package devserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mykash/internal/domain"
)

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func idemKey(r *http.Request) string {
	return r.Header.Get("X-Idempotency-Key")
}

func (srv *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if !decode(w, r, &in) {
		return
	}
	acct, err := srv.service.Register(r.Context(), in)
	if err != nil {
		writeRejection(w, err.Error())
		return
	}
	acct.PIN = ""
	writeSuccess(w, "Registration successful", acct)
}

func (srv *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Identifier string `json:"identifier"`
		PIN        string `json:"pin"`
	}
	if !decode(w, r, &in) {
		return
	}
	acct, err := srv.service.Login(r.Context(), in.Identifier, in.PIN)
	if err != nil {
		writeRejection(w, "Invalid credentials")
		return
	}
	if err := srv.issueSession(w, acct); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	acct.PIN = ""
	writeSuccess(w, "Login successful", acct)
}

func (srv *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearSession(w)
	writeSuccess(w, "Logged out", nil)
}

func (srv *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	acct, err := srv.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRejection(w, err.Error())
		return
	}
	acct.PIN = ""
	writeSuccess(w, "User fetched", acct)
}

func (srv *Server) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	res, err := srv.service.AllUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeSuccess(w, "Users fetched", res)
}

func (srv *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	txs, err := srv.service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRejection(w, err.Error())
		return
	}
	writeSuccess(w, "History fetched", txs)
}

func (srv *Server) handleApproveAgent(w http.ResponseWriter, r *http.Request) {
	acct, err := srv.service.ApproveAgent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRejection(w, err.Error())
		return
	}
	acct.PIN = ""
	writeSuccess(w, "Agent approved", acct)
}

func (srv *Server) handleBlockUser(w http.ResponseWriter, r *http.Request) {
	acct, err := srv.service.ToggleBlock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRejection(w, err.Error())
		return
	}
	acct.PIN = ""
	msg := "User unblocked"
	if acct.IsBlocked {
		msg = "User blocked"
	}
	writeSuccess(w, msg, acct)
}

func (srv *Server) handleTotalBalance(w http.ResponseWriter, r *http.Request) {
	total, err := srv.service.TotalBalance(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute total balance")
		return
	}
	writeSuccess(w, "Total balance", map[string]float64{"totalBalance": total})
}

func (srv *Server) handleTotalUserBalance(w http.ResponseWriter, r *http.Request) {
	total, err := srv.service.TotalBalance(r.Context(), domain.RoleUser)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute total balance")
		return
	}
	writeSuccess(w, "Total user balance", map[string]float64{"totalUserBalance": total})
}

func (srv *Server) handleTotalAgentBalance(w http.ResponseWriter, r *http.Request) {
	total, err := srv.service.TotalBalance(r.Context(), domain.RoleAgent)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute total balance")
		return
	}
	writeSuccess(w, "Total agent balance", map[string]float64{"totalAgentBalance": total})
}

func (srv *Server) handleSendMoney(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SenderID   string  `json:"senderId"`
		ReceiverID string  `json:"receiverId"`
		Amount     float64 `json:"amount"`
	}
	if !decode(w, r, &in) {
		return
	}
	tx, err := srv.service.SendMoney(r.Context(), in.SenderID, in.ReceiverID, in.Amount, idemKey(r))
	if err != nil {
		writeRejection(w, err.Error())
		return
	}
	writeSuccess(w, "Money sent successfully", tx)
}

func (srv *Server) handleCashIn(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AgentID  string  `json:"agentId"`
		UserID   string  `json:"userId"`
		Amount   float64 `json:"amount"`
		AgentPIN string  `json:"agentPin"`
	}
	if !decode(w, r, &in) {
		return
	}
	tx, err := srv.service.CashIn(r.Context(), in.AgentID, in.UserID, in.Amount, in.AgentPIN, idemKey(r))
	if err != nil {
		writeRejection(w, err.Error())
		return
	}
	writeSuccess(w, "Cash in successful", tx)
}

func (srv *Server) handleCashOut(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID  string  `json:"userId"`
		AgentID string  `json:"agentId"`
		Amount  float64 `json:"amount"`
		UserPIN string  `json:"userPin"`
	}
	if !decode(w, r, &in) {
		return
	}
	tx, err := srv.service.CashOut(r.Context(), in.UserID, in.AgentID, in.Amount, in.UserPIN, idemKey(r))
	if err != nil {
		writeRejection(w, err.Error())
		return
	}
	writeSuccess(w, "Cash out successful", tx)
}

func (srv *Server) handleCreateBalanceRequest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID string  `json:"userId"`
		Amount float64 `json:"amount"`
	}
	if !decode(w, r, &in) {
		return
	}
	br, err := srv.service.CreateBalanceRequest(r.Context(), in.UserID, in.Amount, idemKey(r))
	if err != nil {
		writeRejection(w, err.Error())
		return
	}
	writeSuccess(w, "Balance request created", br)
}

func (srv *Server) handleApproveBalanceRequest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RequestID string `json:"requestId"`
	}
	if !decode(w, r, &in) {
		return
	}
	res, err := srv.service.ApproveBalanceRequest(r.Context(), in.RequestID)
	if err != nil {
		writeRejection(w, err.Error())
		return
	}
	writeSuccess(w, "Balance request approved", res)
}

func (srv *Server) handlePendingBalanceRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := srv.service.PendingBalanceRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list balance requests")
		return
	}
	writeSuccess(w, "Pending balance requests", reqs)
}
