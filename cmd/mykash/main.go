package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mykash/internal/adminview"
	"mykash/internal/api"
	"mykash/internal/cache"
	"mykash/internal/config"
	"mykash/internal/dispatch"
	"mykash/internal/domain"
	"mykash/internal/history"
	"mykash/internal/session"
	"mykash/internal/store"
)

const usage = `mykash - mobile money client

Usage:
  mykash register -name NAME -mobile MOBILE -email EMAIL -nid NID -pin PIN -role user|agent
  mykash login -id MOBILE_OR_EMAIL -pin PIN
  mykash logout
  mykash whoami
  mykash send -to USER_ID -amount AMOUNT
  mykash cashout -agent AGENT_ID -amount AMOUNT -pin PIN
  mykash cashin -user USER_ID -amount AMOUNT -pin PIN
  mykash reqbalance -amount AMOUNT
  mykash history
  mykash admin overview|agents|approve-agent|requests|approve-request|block ...
`

type app struct {
	session *session.Manager
	api     *api.Client
	cache   *cache.Cache
	logger  *zap.Logger
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	st, err := store.Open(cfg.StateDir, logger.With(zap.String("component", "Store")))
	if err != nil {
		logger.Fatal("Failed to open state store", zap.Error(err))
	}
	defer st.Close()

	apiClient, err := api.NewClient(cfg.APIOrigin, cfg.RequestTimeout, logger.With(zap.String("component", "APIClient")))
	if err != nil {
		logger.Fatal("Failed to create API client", zap.Error(err))
	}

	c := cache.New(logger.With(zap.String("component", "Cache")))
	a := &app{
		session: session.NewManager(apiClient, c, st, logger.With(zap.String("component", "Session"))),
		api:     apiClient,
		cache:   c,
		logger:  logger,
	}

	ctx := context.Background()
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotSignedIn):
			fmt.Fprintln(os.Stderr, "You are not signed in. Run: mykash login -id ... -pin ...")
		case errors.Is(err, domain.ErrForbidden):
			fmt.Fprintln(os.Stderr, "This command requires the admin role.")
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "send":
		return a.submit(ctx, domain.ServiceSendMoney, args)
	case "cashout":
		return a.submit(ctx, domain.ServiceCashOut, args)
	case "cashin":
		return a.submit(ctx, domain.ServiceCashIn, args)
	case "reqbalance":
		return a.submit(ctx, domain.ServiceBalanceRequest, args)
	case "history":
		return a.history(ctx)
	case "admin":
		return a.admin(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	mobile := fs.String("mobile", "", "mobile number")
	email := fs.String("email", "", "email address")
	nid := fs.String("nid", "", "national id")
	pin := fs.String("pin", "", "account pin")
	role := fs.String("role", "user", "account role: user or agent")
	fs.Parse(args)

	acct, msg, err := a.api.Register(ctx, api.RegisterInput{
		Name:   *name,
		Mobile: *mobile,
		Email:  *email,
		NID:    *nid,
		PIN:    *pin,
		Role:   domain.Role(*role),
	})
	if err != nil {
		return err
	}
	fmt.Println(msg)
	fmt.Printf("Account ID: %s\n", acct.UserID)
	if acct.Role == domain.RoleAgent && !acct.IsActive {
		fmt.Println("Your agent account is pending admin approval.")
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	id := fs.String("id", "", "mobile or email")
	pin := fs.String("pin", "", "account pin")
	fs.Parse(args)

	user, msg, err := a.session.Login(ctx, *id, *pin)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	fmt.Printf("Signed in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	msg, err := a.session.Logout(ctx)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user, err := a.session.RequireUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", user.Name, user.Role)
	fmt.Printf("ID:      %s\n", user.ID)
	fmt.Printf("Mobile:  %s\n", user.Mobile)
	fmt.Printf("Balance: %.2f (usable %.2f)\n", user.Balance, domain.UsableBalance(user.Balance))
	return nil
}

// submit drives the dispatcher through select, pick, and submit for one of
// the four services.
func (a *app) submit(ctx context.Context, svc domain.ServiceType, args []string) error {
	fs := flag.NewFlagSet(string(svc), flag.ExitOnError)
	to := fs.String("to", "", "receiver user id")
	agent := fs.String("agent", "", "agent user id")
	target := fs.String("user", "", "user id")
	amount := fs.Float64("amount", 0, "amount")
	pin := fs.String("pin", "", "pin")
	fs.Parse(args)

	user, err := a.session.RequireUser(ctx)
	if err != nil {
		return err
	}

	flow := dispatch.NewFlow(user, a.api, a.cache, a.logger.With(zap.String("component", "Dispatch")))
	if err := flow.Select(ctx, svc); err != nil {
		return err
	}

	targetID := *to
	if targetID == "" {
		targetID = *agent
	}
	if targetID == "" {
		targetID = *target
	}
	if svc.RequiresTarget() {
		if err := flow.Pick(targetID); err != nil {
			return err
		}
	}

	msg, err := flow.Submit(ctx, *amount, *pin)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) history(ctx context.Context) error {
	user, err := a.session.RequireUser(ctx)
	if err != nil {
		return err
	}
	svc := history.NewService(a.api, a.cache)
	txs, err := svc.History(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("No transactions found.")
		return nil
	}
	for _, tx := range txs {
		dir := history.DirectionOf(tx, user.ID)
		label, name := history.Counterpart(tx, dir)
		fmt.Printf("%s%.2f  %-14s %s %s  fee %.2f  %s\n",
			dir.Sign(), tx.Amount, tx.Type, label, name, tx.Fee,
			tx.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) admin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("admin subcommand required")
	}
	if _, err := a.session.RequireAdmin(ctx); err != nil {
		return err
	}
	svc := adminview.NewService(a.api, a.cache, a.logger.With(zap.String("component", "AdminView")))

	sub, rest := args[0], args[1:]
	switch sub {
	case "overview":
		ov, err := svc.Overview(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Total balance:       %.2f\n", ov.TotalBalance)
		fmt.Printf("Total user balance:  %.2f\n", ov.TotalUserBalance)
		fmt.Printf("Total agent balance: %.2f\n", ov.TotalAgentBalance)
		fmt.Printf("Users: %d total, %d active, %d inactive\n", ov.TotalUsers, ov.ActiveUsers, ov.InactiveUsers)
		fmt.Printf("Agents: %d (%d pending approval), regular users: %d\n", ov.TotalAgents, len(ov.PendingAgents), ov.RegularUsers)
		return nil
	case "agents":
		ov, err := svc.Overview(ctx)
		if err != nil {
			return err
		}
		if len(ov.PendingAgents) == 0 {
			fmt.Println("No pending agent requests.")
			return nil
		}
		for _, agent := range ov.PendingAgents {
			fmt.Printf("%s  %s  %s  %s\n", agent.UserID, agent.Name, agent.Mobile, agent.Email)
		}
		return nil
	case "approve-agent":
		fs := flag.NewFlagSet("approve-agent", flag.ExitOnError)
		id := fs.String("id", "", "agent user id")
		fs.Parse(rest)
		_, msg, err := svc.ApproveAgent(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "requests":
		reqs, err := svc.PendingBalanceRequests(ctx)
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			fmt.Println("No pending balance requests.")
			return nil
		}
		for _, req := range reqs {
			fmt.Printf("%s  agent %s  amount %.2f\n", req.RequestID, req.UserID, req.Amount)
		}
		return nil
	case "approve-request":
		fs := flag.NewFlagSet("approve-request", flag.ExitOnError)
		id := fs.String("id", "", "balance request id")
		fs.Parse(rest)
		_, msg, err := svc.ApproveBalanceRequest(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "block":
		fs := flag.NewFlagSet("block", flag.ExitOnError)
		id := fs.String("id", "", "user id")
		fs.Parse(rest)
		acct, err := a.api.GetUser(ctx, *id)
		if err != nil {
			return err
		}
		updated, err := svc.ToggleBlock(ctx, *acct)
		if err != nil {
			return err
		}
		if updated.IsBlocked {
			fmt.Printf("%s is now blocked.\n", updated.Name)
		} else {
			fmt.Printf("%s is now unblocked.\n", updated.Name)
		}
		return nil
	default:
		return fmt.Errorf("unknown admin subcommand %q", sub)
	}
}
