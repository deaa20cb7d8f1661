// Package devserver is a local stand-in for the mykash backend. It serves
// the same envelope API the production backend does, so the SDK, the CLI,
// and the tests all run against a real wire.
package devserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Server struct {
	service   *Service
	jwtSecret []byte
	logger    *zap.Logger
}

func NewServer(service *Service, jwtSecret string, logger *zap.Logger) *Server {
	return &Server{service: service, jwtSecret: []byte(jwtSecret), logger: logger}
}

func (srv *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1/account", func(r chi.Router) {
		r.Post("/register", srv.handleRegister)
		r.Post("/login", srv.handleLogin)
		r.Get("/logout", srv.handleLogout)
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(srv.requireAuth)
		r.Get("/user/{id}", srv.handleGetUser)
		r.Get("/users", srv.handleGetUsers)
		r.Get("/history/{id}", srv.handleHistory)

		r.Group(func(r chi.Router) {
			r.Use(srv.requireAdmin)
			r.Put("/approve-agent/{id}", srv.handleApproveAgent)
			r.Put("/block-user/{id}", srv.handleBlockUser)
			r.Get("/total-balance", srv.handleTotalBalance)
			r.Get("/total-balance/user", srv.handleTotalUserBalance)
			r.Get("/total-balance/agent", srv.handleTotalAgentBalance)
		})
	})

	r.Route("/api/v2/transaction", func(r chi.Router) {
		r.Use(srv.requireAuth)
		r.Post("/send-money", srv.handleSendMoney)
		r.Post("/cash-in", srv.handleCashIn)
		r.Post("/cash-out", srv.handleCashOut)
	})

	r.Route("/api/v2/balance-request", func(r chi.Router) {
		r.Use(srv.requireAuth)
		r.Post("/create", srv.handleCreateBalanceRequest)
		r.Group(func(r chi.Router) {
			r.Use(srv.requireAdmin)
			r.Post("/approve", srv.handleApproveBalanceRequest)
			r.Get("/pending", srv.handlePendingBalanceRequests)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("mykash dev server"))
	})

	return r
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(envelope{Success: true, Message: message, Data: data})
}

// writeRejection reports a business-rule rejection: a 2xx envelope carrying
// success=false and the message the client surfaces verbatim.
func writeRejection(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}

// writeError reports transport-level failures (auth, malformed requests)
// with a non-2xx status.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}
