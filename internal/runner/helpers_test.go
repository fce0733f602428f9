package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"toolcore/internal/core"
	"toolcore/internal/infra/persistence/memory"
	"toolcore/pkg/domain"
)

const (
	bankDomain = "bank"
	bankIface  = "interface_1"
	colUsers   = domain.Collection("users")
	colAccts   = domain.Collection("accounts")
)

type bankUser struct {
	ID   domain.ID `json:"id"`
	Name string    `json:"name"`
}

type account struct {
	ID      domain.ID `json:"id"`
	OwnerID domain.ID `json:"owner_id"`
	Balance float64   `json:"balance"`
}

var (
	users    = domain.NewTable[bankUser](colUsers, "user")
	accounts = domain.NewTable[account](colAccts, "account")
)

type userRef struct {
	UserID domain.ID `json:"user_id"`
}

type accountRef struct {
	AccountID domain.ID `json:"account_id"`
}

type depositInput struct {
	AccountID domain.ID `json:"account_id"`
	Amount    float64   `json:"amount"`
}

type bankPlugin struct{}

func (bankPlugin) Name() string    { return bankDomain }
func (bankPlugin) Version() string { return "0.0.1" }

func (bankPlugin) Register(r *core.PluginRegistry) error {
	r.RegisterCollection(domain.CollectionSpec{Name: colUsers}, domain.CollectionSpec{Name: colAccts})
	r.RegisterTools(bankIface,
		core.NewTool("verify_user", "Look up the acting user.", func(tx domain.Tx, in userRef) (any, error) {
			return users.Get(tx, in.UserID.String())
		}, core.IdentityCheck()),
		core.NewTool("get_balance", "Read an account balance.", func(tx domain.Tx, in accountRef) (any, error) {
			a, err := accounts.Get(tx, in.AccountID.String())
			if err != nil {
				return nil, err
			}
			return a.Balance, nil
		}, core.ReadOnly()),
		core.NewTool("deposit", "Add money to an account.", func(tx domain.Tx, in depositInput) (any, error) {
			a, err := accounts.Get(tx, in.AccountID.String())
			if err != nil {
				return nil, err
			}
			a.Balance += in.Amount
			if err := accounts.Put(tx, a.ID.String(), a); err != nil {
				return nil, err
			}
			return fmt.Sprintf("Deposited %.2f, new balance %.2f", in.Amount, a.Balance), nil
		}, core.WithMinimum("amount", 0.01)),
	)
	return nil
}

func bankEnv() Environment {
	return Environment{
		Domain:    bankDomain,
		Interface: bankIface,
		Dataset: memory.Snapshot{
			colUsers: {{ID: "7", Record: domain.Record{"id": "7", "name": "Ada"}}},
			colAccts: {{ID: "A1", Record: domain.Record{"id": "A1", "owner_id": "7", "balance": 100.0}}},
		},
	}
}

func newBankService() *core.Service {
	svc := core.NewService()
	if _, err := svc.InstallPlugin(bankPlugin{}); err != nil {
		panic(err)
	}
	return svc
}

func fixedClock() core.Clock {
	return core.ClockFunc(func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) })
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

type memorySink struct {
	mu    sync.Mutex
	saved []Transcript
	err   error
}

func (s *memorySink) Save(_ context.Context, t Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, t)
	return nil
}
