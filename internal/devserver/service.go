package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mykash/internal/domain"
)

// Fee schedule and signup bonuses for the mock ledger.
const (
	sendMoneyFee  = 5.0
	cashOutFeePct = 0.015
	userBonus     = 40.0
	agentFloat    = 100000.0
)

// Service holds the dev server's mock business rules: faithful enough that
// the client's flows behave like they do against the real backend.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

type RegisterInput struct {
	Name   string      `json:"name"`
	Mobile string      `json:"mobile"`
	Email  string      `json:"email"`
	NID    string      `json:"nid"`
	PIN    string      `json:"pin"`
	Role   domain.Role `json:"role"`
}

func (in RegisterInput) validate() string {
	if in.Name == "" || in.Mobile == "" || in.Email == "" || in.NID == "" || in.PIN == "" {
		return "name, mobile, email, nid and pin are required"
	}
	if len(in.PIN) < 4 {
		return "pin must be at least 4 digits"
	}
	if in.Role != domain.RoleUser && in.Role != domain.RoleAgent {
		return "role must be either 'user' or 'agent'"
	}
	return ""
}

// Register creates an account. Users start active with a signup bonus;
// agents start inactive with their float, pending admin approval.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	if msg := in.validate(); msg != "" {
		return nil, fmt.Errorf("%s", msg)
	}

	now := s.now()
	acct := &domain.Account{
		UserID:    uuid.NewString(),
		Name:      in.Name,
		Mobile:    in.Mobile,
		Email:     in.Email,
		NID:       in.NID,
		PIN:       in.PIN,
		Role:      in.Role,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	switch in.Role {
	case domain.RoleUser:
		acct.Balance = userBonus
		acct.IsActive = true
	case domain.RoleAgent:
		acct.Balance = agentFloat
		acct.IsActive = false
	}

	if err := s.store.CreateAccount(acct); err != nil {
		return nil, err
	}
	s.logger.Info("account registered",
		zap.String("user_id", acct.UserID),
		zap.String("role", string(acct.Role)))
	return acct, nil
}

func (s *Service) Login(ctx context.Context, identifier, pin string) (*domain.Account, error) {
	acct, err := s.store.FindByIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if acct.IsDelete {
		return nil, domain.ErrAccountNotFound
	}
	if acct.IsBlocked {
		return nil, domain.ErrAccountBlocked
	}
	if acct.PIN != pin {
		return nil, domain.ErrWrongPIN
	}
	return acct, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (*domain.Account, error) {
	return s.store.GetAccount(userID)
}

type UsersResult struct {
	Users         []domain.Account `json:"users"`
	TotalUsers    int              `json:"totalUsers"`
	ActiveUsers   int              `json:"activeUsers"`
	InactiveUsers int              `json:"inactiveUsers"`
}

// AllUsers lists every non-admin account with the derived counts.
func (s *Service) AllUsers(ctx context.Context) (*UsersResult, error) {
	accounts, err := s.store.ListAccounts()
	if err != nil {
		return nil, err
	}
	res := &UsersResult{Users: []domain.Account{}}
	for _, a := range accounts {
		if a.Role == domain.RoleAdmin || a.IsDelete {
			continue
		}
		a.PIN = ""
		res.Users = append(res.Users, a)
		res.TotalUsers++
		if a.IsActive {
			res.ActiveUsers++
		} else {
			res.InactiveUsers++
		}
	}
	return res, nil
}

func (s *Service) ApproveAgent(ctx context.Context, userID string) (*domain.Account, error) {
	acct, err := s.store.GetAccount(userID)
	if err != nil {
		return nil, err
	}
	if acct.Role != domain.RoleAgent {
		return nil, fmt.Errorf("account %s is not an agent", userID)
	}
	acct.IsActive = true
	if err := s.store.UpdateAccount(acct); err != nil {
		return nil, err
	}
	s.logger.Info("agent approved", zap.String("user_id", userID))
	return acct, nil
}

func (s *Service) ToggleBlock(ctx context.Context, userID string) (*domain.Account, error) {
	acct, err := s.store.GetAccount(userID)
	if err != nil {
		return nil, err
	}
	acct.IsBlocked = !acct.IsBlocked
	if err := s.store.UpdateAccount(acct); err != nil {
		return nil, err
	}
	s.logger.Info("block flag toggled",
		zap.String("user_id", userID),
		zap.Bool("is_blocked", acct.IsBlocked))
	return acct, nil
}

// TotalBalance sums non-admin balances; role narrows the sum when set.
func (s *Service) TotalBalance(ctx context.Context, role domain.Role) (float64, error) {
	accounts, err := s.store.ListAccounts()
	if err != nil {
		return 0, err
	}
	var total float64
	for _, a := range accounts {
		if a.IsDelete || a.Role == domain.RoleAdmin {
			continue
		}
		if role != "" && a.Role != role {
			continue
		}
		total += a.Balance
	}
	return total, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]domain.Transaction, error) {
	if _, err := s.store.GetAccount(userID); err != nil {
		return nil, err
	}
	txs, err := s.store.HistoryFor(userID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}

// debit enforces the reserve: every debit must leave at least the reserve
// on the account.
func debit(acct *domain.Account, amount float64) error {
	if acct.Balance-amount < domain.Reserve {
		return domain.ErrInsufficientFunds
	}
	acct.Balance -= amount
	return nil
}

func (s *Service) recordTransaction(svc domain.ServiceType, from, to *domain.Account, amount, fee float64) (*domain.Transaction, error) {
	now := s.now()
	tx := &domain.Transaction{
		TransactionID: uuid.NewString(),
		Amount:        amount,
		Fee:           fee,
		Type:          svc,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if from != nil {
		tx.FromAccount = from.Summary()
	}
	if to != nil {
		tx.ToAccount = to.Summary()
	}
	if err := s.store.AppendTransaction(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// replayIdempotent returns the stored result for a repeated submission key,
// so a user retry cannot duplicate a transaction or a balance request.
func replayIdempotent[T any](s *Service, key string) (*T, bool) {
	if key == "" {
		return nil, false
	}
	payload, ok, err := s.store.GetIdempotent(key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, false
	}
	s.logger.Info("idempotent submission replayed", zap.String("key", key))
	return &v, true
}

func (s *Service) storeIdempotent(key string, v any) {
	if key == "" {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.store.PutIdempotent(key, payload); err != nil {
		s.logger.Warn("failed to store idempotency record", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) SendMoney(ctx context.Context, senderID, receiverID string, amount float64, idemKey string) (*domain.Transaction, error) {
	if tx, ok := replayIdempotent[domain.Transaction](s, idemKey); ok {
		return tx, nil
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	// Both sides are read and written as separate records, so a self-send
	// would let the credited copy clobber the debited one.
	if senderID == receiverID {
		return nil, fmt.Errorf("cannot send money to the same account")
	}
	sender, err := s.store.GetAccount(senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.store.GetAccount(receiverID)
	if err != nil {
		return nil, err
	}
	if sender.Role != domain.RoleUser || receiver.Role != domain.RoleUser {
		return nil, fmt.Errorf("send money is only between user accounts")
	}
	if err := debit(sender, amount+sendMoneyFee); err != nil {
		return nil, err
	}
	receiver.Balance += amount

	if err := s.store.UpdateAccount(sender); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAccount(receiver); err != nil {
		return nil, err
	}
	tx, err := s.recordTransaction(domain.ServiceSendMoney, sender, receiver, amount, sendMoneyFee)
	if err != nil {
		return nil, err
	}
	s.storeIdempotent(idemKey, tx)
	return tx, nil
}

func (s *Service) CashIn(ctx context.Context, agentID, userID string, amount float64, agentPIN, idemKey string) (*domain.Transaction, error) {
	if tx, ok := replayIdempotent[domain.Transaction](s, idemKey); ok {
		return tx, nil
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	agent, err := s.store.GetAccount(agentID)
	if err != nil {
		return nil, err
	}
	if agent.Role != domain.RoleAgent || !agent.IsActive {
		return nil, domain.ErrAgentInactive
	}
	if agent.PIN != agentPIN {
		return nil, domain.ErrWrongPIN
	}
	user, err := s.store.GetAccount(userID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleUser {
		return nil, fmt.Errorf("cash in target must be a user account")
	}
	if err := debit(agent, amount); err != nil {
		return nil, err
	}
	user.Balance += amount

	if err := s.store.UpdateAccount(agent); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAccount(user); err != nil {
		return nil, err
	}
	tx, err := s.recordTransaction(domain.ServiceCashIn, agent, user, amount, 0)
	if err != nil {
		return nil, err
	}
	s.storeIdempotent(idemKey, tx)
	return tx, nil
}

func (s *Service) CashOut(ctx context.Context, userID, agentID string, amount float64, userPIN, idemKey string) (*domain.Transaction, error) {
	if tx, ok := replayIdempotent[domain.Transaction](s, idemKey); ok {
		return tx, nil
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	user, err := s.store.GetAccount(userID)
	if err != nil {
		return nil, err
	}
	if user.PIN != userPIN {
		return nil, domain.ErrWrongPIN
	}
	agent, err := s.store.GetAccount(agentID)
	if err != nil {
		return nil, err
	}
	if agent.Role != domain.RoleAgent || !agent.IsActive {
		return nil, domain.ErrAgentInactive
	}
	fee := amount * cashOutFeePct
	if err := debit(user, amount+fee); err != nil {
		return nil, err
	}
	agent.Balance += amount

	if err := s.store.UpdateAccount(user); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAccount(agent); err != nil {
		return nil, err
	}
	tx, err := s.recordTransaction(domain.ServiceCashOut, user, agent, amount, fee)
	if err != nil {
		return nil, err
	}
	s.storeIdempotent(idemKey, tx)
	return tx, nil
}

func (s *Service) CreateBalanceRequest(ctx context.Context, userID string, amount float64, idemKey string) (*domain.BalanceRequest, error) {
	if br, ok := replayIdempotent[domain.BalanceRequest](s, idemKey); ok {
		return br, nil
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	acct, err := s.store.GetAccount(userID)
	if err != nil {
		return nil, err
	}
	if acct.Role != domain.RoleAgent {
		return nil, fmt.Errorf("only agents can request balance")
	}
	now := s.now()
	br := &domain.BalanceRequest{
		RequestID: uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Status:    domain.BalanceRequestPending,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	if err := s.store.CreateBalanceRequest(br); err != nil {
		return nil, err
	}
	s.storeIdempotent(idemKey, br)
	s.logger.Info("balance request created",
		zap.String("request_id", br.RequestID),
		zap.String("user_id", userID),
		zap.Float64("amount", amount))
	return br, nil
}

type ApproveBalanceRequestResult struct {
	Transaction    *domain.Transaction    `json:"transaction"`
	BalanceRequest *domain.BalanceRequest `json:"balanceRequest"`
}

// ApproveBalanceRequest credits the requesting agent and records a
// balanceRequest transaction.
func (s *Service) ApproveBalanceRequest(ctx context.Context, requestID string) (*ApproveBalanceRequestResult, error) {
	br, err := s.store.GetBalanceRequest(requestID)
	if err != nil {
		return nil, err
	}
	if br.Status != domain.BalanceRequestPending {
		return nil, domain.ErrRequestNotPending
	}
	agent, err := s.store.GetAccount(br.UserID)
	if err != nil {
		return nil, err
	}
	agent.Balance += br.Amount
	if err := s.store.UpdateAccount(agent); err != nil {
		return nil, err
	}
	br.Status = domain.BalanceRequestApproved
	if err := s.store.UpdateBalanceRequest(br); err != nil {
		return nil, err
	}
	tx, err := s.recordTransaction(domain.ServiceBalanceRequest, nil, agent, br.Amount, 0)
	if err != nil {
		return nil, err
	}
	s.logger.Info("balance request approved", zap.String("request_id", requestID))
	return &ApproveBalanceRequestResult{Transaction: tx, BalanceRequest: br}, nil
}

func (s *Service) PendingBalanceRequests(ctx context.Context) ([]domain.BalanceRequest, error) {
	reqs, err := s.store.ListBalanceRequests(domain.BalanceRequestPending)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []domain.BalanceRequest{}
	}
	return reqs, nil
}

// EnsureAdmin seeds the admin account on first start so the dashboard is
// reachable out of the box.
func (s *Service) EnsureAdmin(ctx context.Context, pin string) error {
	if _, err := s.store.FindByIdentifier("01000000000"); err == nil {
		return nil
	}
	now := s.now()
	admin := &domain.Account{
		UserID:    uuid.NewString(),
		Name:      "Admin",
		Mobile:    "01000000000",
		Email:     "admin@mykash.local",
		NID:       "0000000000",
		PIN:       pin,
		Role:      domain.RoleAdmin,
		IsActive:  true,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	if err := s.store.CreateAccount(admin); err != nil {
		return err
	}
	s.logger.Info("admin account seeded", zap.String("user_id", admin.UserID))
	return nil
}
