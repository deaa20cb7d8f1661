package devserver

import (
	"context"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"

	"mykash/internal/domain"
)

const sessionCookie = "mykash_session"

type claims struct {
	UserID string      `json:"userid"`
	Role   domain.Role `json:"role"`
	jwt.StandardClaims
}

type ctxKey int

const claimsKey ctxKey = 0

func claimsFrom(ctx context.Context) *claims {
	c, _ := ctx.Value(claimsKey).(*claims)
	return c
}

func (srv *Server) issueSession(w http.ResponseWriter, acct *domain.Account) error {
	expires := time.Now().Add(24 * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		UserID: acct.UserID,
		Role:   acct.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expires.Unix(),
		},
	})
	signed, err := token.SignedString(srv.jwtSecret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
	})
	return nil
}

func clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// requireAuth validates the session cookie and stores the claims on the
// request context.
func (srv *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing session")
			return
		}
		c := &claims{}
		token, err := jwt.ParseWithClaims(cookie.Value, c, func(token *jwt.Token) (interface{}, error) {
			return srv.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid session")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, c)))
	})
}

func (srv *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := claimsFrom(r.Context())
		if c == nil || c.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
