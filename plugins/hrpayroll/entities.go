package hrpayroll

import (
	"math"
	"regexp"

	"toolcore/pkg/domain"
)

const (
	colUsers     domain.Collection = "users"
	colContracts domain.Collection = "contracts"
	colPayslips  domain.Collection = "payslips"
)

// Contract statuses.
const (
	ContractDraft      = "draft"
	ContractActive     = "active"
	ContractTerminated = "terminated"
	ContractEnded      = "ended"
)

// User statuses.
const (
	UserActive    = "active"
	UserInactive  = "inactive"
	UserSuspended = "suspended"
	UserDeleted   = "deleted"
)

var (
	roles     = []string{"employee", "manager", "hr_admin", "contractor"}
	rateTypes = []string{"hourly", "monthly", "annual"}
)

// User is an employee profile.
type User struct {
	UserID    domain.ID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Timezone  string    `json:"timezone"`
	Status    string    `json:"status"`
	CreatedAt string    `json:"created_at,omitempty"`
	UpdatedAt string    `json:"updated_at,omitempty"`
}

// Contract is an employment agreement with its pay terms.
type Contract struct {
	ContractID domain.ID `json:"contract_id"`
	UserID     domain.ID `json:"user_id"`
	Title      string    `json:"title,omitempty"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date,omitempty"`
	Rate       float64   `json:"rate"`
	RateType   string    `json:"rate_type"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CreatedAt  string    `json:"created_at,omitempty"`
	UpdatedAt  string    `json:"updated_at,omitempty"`
}

// Payslip is the gross pay issued for one period of a contract.
type Payslip struct {
	PayslipID   domain.ID `json:"payslip_id"`
	UserID      domain.ID `json:"user_id"`
	ContractID  domain.ID `json:"contract_id"`
	PeriodStart string    `json:"period_start"`
	PeriodEnd   string    `json:"period_end"`
	Hours       float64   `json:"hours,omitempty"`
	GrossAmount float64   `json:"gross_amount"`
	Currency    string    `json:"currency"`
	IssuedAt    string    `json:"issued_at"`
}

var (
	users     = domain.NewTable[User](colUsers, "user")
	contracts = domain.NewTable[Contract](colContracts, "contract")
	payslips  = domain.NewTable[Payslip](colPayslips, "payslip")
)

var contractLifecycle = domain.StateMachine{
	Collection: colContracts,
	Entity:     "contract",
	States:     []string{ContractDraft, ContractActive, ContractTerminated, ContractEnded},
	Transitions: map[string][]string{
		ContractDraft:  {ContractActive, ContractTerminated},
		ContractActive: {ContractTerminated, ContractEnded},
	},
	Terminal: []string{ContractTerminated, ContractEnded},
	Order:    []string{ContractDraft, ContractActive},
}

var userLifecycle = domain.StateMachine{
	Collection: colUsers,
	Entity:     "user",
	States:     []string{UserActive, UserInactive, UserSuspended, UserDeleted},
	Terminal:   []string{UserDeleted},
}

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)
)

func checkDate(field, value string) error {
	if !datePattern.MatchString(value) {
		return domain.ErrInvalidArgument{Field: field, Reason: "must be a YYYY-MM-DD date"}
	}
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
