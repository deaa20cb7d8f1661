// Package dispatch is the transaction dispatcher: a small state machine
// that selects a service, a counterparty where one is needed, and submits
// exactly one of the four transaction mutations. All client-side checks are
// early-fail conveniences; the backend enforces correctness.
package dispatch

import (
	"context"

	"go.uber.org/zap"

	"mykash/internal/api"
	"mykash/internal/cache"
	"mykash/internal/domain"
	"mykash/internal/session"
)

type State int

const (
	StateIdle State = iota
	StateServiceSelected
	StateTargetSelected
)

// Flow is one dispatch attempt for one signed-in user. It is not safe for
// concurrent use; every caller drives its own flow.
type Flow struct {
	user   *session.User
	api    *api.Client
	cache  *cache.Cache
	logger *zap.Logger

	state      State
	service    domain.ServiceType
	target     *domain.AccountSummary
	candidates []domain.Account
}

func NewFlow(user *session.User, apiClient *api.Client, c *cache.Cache, logger *zap.Logger) *Flow {
	return &Flow{user: user, api: apiClient, cache: c, logger: logger}
}

func (f *Flow) State() State                   { return f.state }
func (f *Flow) Service() domain.ServiceType    { return f.service }
func (f *Flow) Target() *domain.AccountSummary { return f.target }
func (f *Flow) Candidates() []domain.Account   { return f.candidates }

// Reset returns the flow to idle, dropping any selection.
func (f *Flow) Reset() {
	f.state = StateIdle
	f.service = ""
	f.target = nil
	f.candidates = nil
}

// Select picks a service, resets target/amount/PIN defaults, and loads the
// counterparty candidate list by filtering the full user list client-side.
// The list is not paginated; that is a known limitation of the backend
// contract, not something this client works around.
func (f *Flow) Select(ctx context.Context, service domain.ServiceType) error {
	allowed := false
	for _, s := range domain.AllowedServices(f.user.Role) {
		if s == service {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.ErrServiceNotAllowed
	}

	f.service = service
	f.target = nil
	f.candidates = nil
	f.state = StateServiceSelected

	if !service.RequiresTarget() {
		return nil
	}

	users, err := cache.Query(ctx, f.cache, cache.KeyAdminUsers, func(ctx context.Context) (*api.UsersResult, error) {
		return f.api.GetAllUsers(ctx)
	})
	if err != nil {
		f.Reset()
		return err
	}

	for _, u := range users.Users {
		if f.isCandidate(u) {
			f.candidates = append(f.candidates, u)
		}
	}
	return nil
}

func (f *Flow) isCandidate(u domain.Account) bool {
	switch f.service {
	case domain.ServiceSendMoney:
		return u.Role == domain.RoleUser && u.UserID != f.user.ID
	case domain.ServiceCashOut:
		return u.Role == domain.RoleAgent && u.IsActive
	case domain.ServiceCashIn:
		return u.Role == domain.RoleUser
	default:
		return false
	}
}

// Pick selects a counterparty from the candidate list.
func (f *Flow) Pick(userID string) error {
	if f.state == StateIdle {
		return domain.ErrNoService
	}
	for _, u := range f.candidates {
		if u.UserID == userID {
			f.target = u.Summary()
			f.state = StateTargetSelected
			return nil
		}
	}
	return domain.ErrUnknownTarget
}

// Submit validates locally, then fires exactly one mutation. Validation
// failures and mutation errors leave the flow state unchanged so the caller
// can fix the input and resubmit; success returns the flow to idle. The
// returned string is the backend's message.
func (f *Flow) Submit(ctx context.Context, amount float64, pin string) (string, error) {
	if f.state == StateIdle {
		return "", domain.ErrNoService
	}
	if f.service.RequiresTarget() && f.target == nil {
		return "", domain.ErrNoTarget
	}
	if amount <= 0 {
		return "", domain.ErrInvalidAmount
	}
	if f.service.RequiresPIN() && pin == "" {
		return "", domain.ErrPinRequired
	}
	if f.service == domain.ServiceSendMoney || f.service == domain.ServiceCashOut {
		if amount > domain.UsableBalance(f.user.Balance) {
			return "", domain.ErrInsufficientBalance
		}
	}

	invalidates := []string{
		cache.KeyTransactions,
		cache.KeyHistory(f.user.ID),
		cache.KeyAccount(f.user.ID),
	}

	var msg string
	var err error
	switch f.service {
	case domain.ServiceSendMoney:
		_, msg, err = mutate(ctx, f, invalidates, func(ctx context.Context) (*domain.Transaction, string, error) {
			return f.api.SendMoney(ctx, api.SendMoneyPayload{
				SenderID:   f.user.ID,
				ReceiverID: f.target.UserID,
				Amount:     amount,
			})
		})
	case domain.ServiceCashOut:
		_, msg, err = mutate(ctx, f, invalidates, func(ctx context.Context) (*domain.Transaction, string, error) {
			return f.api.CashOut(ctx, api.CashOutPayload{
				UserID:  f.user.ID,
				AgentID: f.target.UserID,
				Amount:  amount,
				UserPIN: pin,
			})
		})
	case domain.ServiceCashIn:
		_, msg, err = mutate(ctx, f, invalidates, func(ctx context.Context) (*domain.Transaction, string, error) {
			return f.api.CashIn(ctx, api.CashInPayload{
				AgentID:  f.user.ID,
				UserID:   f.target.UserID,
				Amount:   amount,
				AgentPIN: pin,
			})
		})
	case domain.ServiceBalanceRequest:
		invalidates = append(invalidates, cache.KeyBalanceRequestsPending)
		_, msg, err = mutate(ctx, f, invalidates, func(ctx context.Context) (*domain.BalanceRequest, string, error) {
			return f.api.CreateBalanceRequest(ctx, api.CreateBalanceRequestPayload{
				UserID: f.user.ID,
				Amount: amount,
			})
		})
	}

	if err != nil {
		f.logger.Warn("submission failed",
			zap.String("service", string(f.service)),
			zap.Float64("amount", amount),
			zap.Error(err))
		return msg, err
	}

	f.logger.Info("submission succeeded",
		zap.String("service", string(f.service)),
		zap.Float64("amount", amount))
	f.Reset()
	return msg, nil
}

// mutate fires one mutation and invalidates the related query keys on
// success only, so dependent views refetch.
func mutate[T any](ctx context.Context, f *Flow, invalidates []string, fn func(ctx context.Context) (T, string, error)) (T, string, error) {
	res, msg, err := fn(ctx)
	if err != nil {
		return res, msg, err
	}
	f.cache.Invalidate(invalidates...)
	return res, msg, nil
}
