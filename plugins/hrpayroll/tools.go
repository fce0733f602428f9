package hrpayroll

import (
	"sort"
	"strconv"
	"strings"

	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

type userRef struct {
	UserID domain.ID `json:"user_id" jsonschema:"employee id"`
}

type contractRef struct {
	ContractID domain.ID `json:"contract_id" jsonschema:"contract id"`
}

type createUserInput struct {
	Name     string `json:"name" jsonschema:"full name"`
	Email    string `json:"email" jsonschema:"work email; must be unique"`
	Role     string `json:"role" jsonschema:"job role"`
	Timezone string `json:"timezone" jsonschema:"IANA timezone such as UTC or Europe/Berlin"`
}

type updateUserStatusInput struct {
	UserID domain.ID `json:"user_id" jsonschema:"employee id"`
	Status string    `json:"status" jsonschema:"new status"`
}

type createContractInput struct {
	UserID    domain.ID `json:"user_id" jsonschema:"employee the contract is for"`
	Title     string    `json:"title,omitempty" jsonschema:"position title"`
	StartDate string    `json:"start_date" jsonschema:"first day (YYYY-MM-DD)"`
	EndDate   string    `json:"end_date,omitempty" jsonschema:"last day (YYYY-MM-DD); open-ended when omitted"`
	Rate      float64   `json:"rate" jsonschema:"pay rate"`
	RateType  string    `json:"rate_type" jsonschema:"unit of the pay rate"`
	Currency  string    `json:"currency,omitempty" jsonschema:"ISO currency code; defaults to USD"`
}

type payTermsInput struct {
	ContractID domain.ID `json:"contract_id" jsonschema:"contract to update"`
	NewRate    float64   `json:"new_rate" jsonschema:"new pay rate"`
	RateType   string    `json:"rate_type" jsonschema:"unit of the new pay rate"`
}

type closeContractInput struct {
	ContractID domain.ID `json:"contract_id" jsonschema:"contract to close"`
	EndDate    string    `json:"end_date,omitempty" jsonschema:"effective date (YYYY-MM-DD); defaults to today"`
}

type listContractsInput struct {
	UserID domain.ID `json:"user_id" jsonschema:"employee id"`
	Status string    `json:"status,omitempty" jsonschema:"only contracts in this status"`
}

type payslipInput struct {
	ContractID  domain.ID `json:"contract_id" jsonschema:"contract being paid"`
	PeriodStart string    `json:"period_start" jsonschema:"first day of the pay period (YYYY-MM-DD)"`
	PeriodEnd   string    `json:"period_end" jsonschema:"last day of the pay period (YYYY-MM-DD)"`
	Hours       float64   `json:"hours,omitempty" jsonschema:"hours worked; required for hourly contracts"`
}

func createUserProfile() core.Descriptor {
	return core.NewTool("create_user_profile",
		"Create an active employee profile. Emails are unique across profiles.",
		func(tx domain.Tx, in createUserInput) (any, error) {
			name := strings.TrimSpace(in.Name)
			if name == "" {
				return nil, domain.ErrInvalidArgument{Field: "name", Reason: "must not be blank"}
			}
			email := strings.TrimSpace(in.Email)
			if !emailPattern.MatchString(email) {
				return nil, domain.ErrInvalidArgument{Field: "email", Reason: "not an email address"}
			}
			taken, err := users.Filter(tx, func(u User) bool { return strings.EqualFold(u.Email, email) })
			if err != nil {
				return nil, err
			}
			if len(taken) > 0 {
				return nil, domain.ErrAlreadyExists{Entity: "user", Field: "email", Value: email}
			}
			id, err := users.Mint(tx)
			if err != nil {
				return nil, err
			}
			now := tx.Now()
			user := User{
				UserID:    domain.ID(id),
				Name:      name,
				Email:     email,
				Role:      in.Role,
				Timezone:  in.Timezone,
				Status:    UserActive,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := users.Insert(tx, id, user); err != nil {
				return nil, err
			}
			return user, nil
		}, core.WithEnum("role", roles...))
}

func getUserProfile() core.Descriptor {
	return core.NewTool("get_user_profile",
		"Return an employee profile. Call it first to verify the employee you are helping.",
		func(tx domain.Tx, in userRef) (any, error) {
			return users.Get(tx, in.UserID.String())
		}, core.IdentityCheck())
}

func updateUserStatus() core.Descriptor {
	return core.NewTool("update_user_status",
		"Change an employee's status. Deleting requires every contract to be closed.",
		func(tx domain.Tx, in updateUserStatusInput) (any, error) {
			user, err := users.Get(tx, in.UserID.String())
			if err != nil {
				return nil, err
			}
			if err := userLifecycle.Transition(user.UserID.String(), user.Status, in.Status); err != nil {
				return nil, err
			}
			if in.Status == UserDeleted {
				open, err := contracts.Filter(tx, func(c Contract) bool {
					return c.UserID == user.UserID && !contractLifecycle.IsTerminal(c.Status)
				})
				if err != nil {
					return nil, err
				}
				if len(open) > 0 {
					return nil, domain.ErrConflictingReference{Entity: "user", ID: user.UserID.String(), Related: "contract", RelatedID: open[0].ContractID.String()}
				}
			}
			user.Status = in.Status
			user.UpdatedAt = tx.Now()
			if err := users.Put(tx, user.UserID.String(), user); err != nil {
				return nil, err
			}
			return user, nil
		}, core.WithEnum("status", userLifecycle.States...))
}

func createContract() core.Descriptor {
	return core.NewTool("create_contract",
		"Draft a contract for an active employee.",
		func(tx domain.Tx, in createContractInput) (any, error) {
			user, err := users.Get(tx, in.UserID.String())
			if err != nil {
				return nil, err
			}
			if user.Status != UserActive {
				return nil, domain.ErrInvalidState{Entity: "user", ID: user.UserID.String(), From: user.Status}
			}
			if err := checkDate("start_date", in.StartDate); err != nil {
				return nil, err
			}
			if in.EndDate != "" {
				if err := checkDate("end_date", in.EndDate); err != nil {
					return nil, err
				}
				if in.EndDate <= in.StartDate {
					return nil, domain.ErrInvalidArgument{Field: "end_date", Reason: "must be after start_date"}
				}
			}
			currency := strings.ToUpper(in.Currency)
			if currency == "" {
				currency = "USD"
			}
			id, err := contracts.Mint(tx)
			if err != nil {
				return nil, err
			}
			now := tx.Now()
			c := Contract{
				ContractID: domain.ID(id),
				UserID:     user.UserID,
				Title:      in.Title,
				StartDate:  in.StartDate,
				EndDate:    in.EndDate,
				Rate:       roundCents(in.Rate),
				RateType:   in.RateType,
				Currency:   currency,
				Status:     ContractDraft,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := contracts.Insert(tx, id, c); err != nil {
				return nil, err
			}
			return c, nil
		}, core.WithMinimum("rate", 0.01), core.WithEnum("rate_type", rateTypes...))
}

func activateContract() core.Descriptor {
	return core.NewTool("activate_contract",
		"Activate a draft contract. An employee holds at most one active contract.",
		func(tx domain.Tx, in contractRef) (any, error) {
			c, err := contracts.Get(tx, in.ContractID.String())
			if err != nil {
				return nil, err
			}
			if err := contractLifecycle.Transition(c.ContractID.String(), c.Status, ContractActive); err != nil {
				return nil, err
			}
			active, err := contracts.Filter(tx, func(other Contract) bool {
				return other.UserID == c.UserID && other.Status == ContractActive
			})
			if err != nil {
				return nil, err
			}
			if len(active) > 0 {
				return nil, domain.ErrConflictingReference{Entity: "contract", ID: c.ContractID.String(), Related: "contract", RelatedID: active[0].ContractID.String()}
			}
			c.Status = ContractActive
			c.UpdatedAt = tx.Now()
			if err := contracts.Put(tx, c.ContractID.String(), c); err != nil {
				return nil, err
			}
			return c, nil
		})
}

func updateContractPayTerms() core.Descriptor {
	return core.NewTool("update_contract_pay_terms",
		"Change the rate of an active contract. Other contract terms are left as they are.",
		func(tx domain.Tx, in payTermsInput) (any, error) {
			c, err := contracts.Get(tx, in.ContractID.String())
			if err != nil {
				return nil, err
			}
			if c.Status != ContractActive {
				return nil, domain.ErrInvalidState{Entity: "contract", ID: c.ContractID.String(), From: c.Status}
			}
			c.Rate = roundCents(in.NewRate)
			c.RateType = in.RateType
			c.UpdatedAt = tx.Now()
			if err := contracts.Put(tx, c.ContractID.String(), c); err != nil {
				return nil, err
			}
			return c, nil
		}, core.WithMinimum("new_rate", 0.01), core.WithEnum("rate_type", rateTypes...))
}

func closeContract(name, description, to string) core.Descriptor {
	return core.NewTool(name, description, func(tx domain.Tx, in closeContractInput) (any, error) {
		c, err := contracts.Get(tx, in.ContractID.String())
		if err != nil {
			return nil, err
		}
		if err := contractLifecycle.Transition(c.ContractID.String(), c.Status, to); err != nil {
			return nil, err
		}
		end := in.EndDate
		if end == "" {
			end = tx.Now()[:len("2006-01-02")]
		} else if err := checkDate("end_date", end); err != nil {
			return nil, err
		}
		if end < c.StartDate {
			return nil, domain.ErrInvalidArgument{Field: "end_date", Reason: "must not precede start_date"}
		}
		c.Status = to
		c.EndDate = end
		c.UpdatedAt = tx.Now()
		if err := contracts.Put(tx, c.ContractID.String(), c); err != nil {
			return nil, err
		}
		return c, nil
	})
}

func getContract() core.Descriptor {
	return core.NewTool("get_contract",
		"Return a contract with its pay terms and status.",
		func(tx domain.Tx, in contractRef) (any, error) {
			return contracts.Get(tx, in.ContractID.String())
		}, core.ReadOnly())
}

func listUserContracts() core.Descriptor {
	return core.NewTool("list_user_contracts",
		"List an employee's contracts ordered by contract id.",
		func(tx domain.Tx, in listContractsInput) (any, error) {
			if !users.Exists(tx, in.UserID.String()) {
				return nil, domain.ErrNotFound{Entity: "user", ID: in.UserID.String()}
			}
			out, err := contracts.Filter(tx, func(c Contract) bool {
				return c.UserID == in.UserID && (in.Status == "" || c.Status == in.Status)
			})
			if err != nil {
				return nil, err
			}
			sort.Slice(out, func(i, j int) bool { return numericLess(out[i].ContractID, out[j].ContractID) })
			return out, nil
		}, core.ReadOnly(), core.WithEnum("status", contractLifecycle.States...))
}

func generatePayslip() core.Descriptor {
	return core.NewTool("generate_payslip",
		"Issue the payslip for one pay period of an active contract.",
		func(tx domain.Tx, in payslipInput) (any, error) {
			c, err := contracts.Get(tx, in.ContractID.String())
			if err != nil {
				return nil, err
			}
			if c.Status != ContractActive {
				return nil, domain.ErrInvalidState{Entity: "contract", ID: c.ContractID.String(), From: c.Status}
			}
			if err := checkDate("period_start", in.PeriodStart); err != nil {
				return nil, err
			}
			if err := checkDate("period_end", in.PeriodEnd); err != nil {
				return nil, err
			}
			if in.PeriodEnd < in.PeriodStart {
				return nil, domain.ErrInvalidArgument{Field: "period_end", Reason: "must not precede period_start"}
			}
			dup, err := payslips.Filter(tx, func(p Payslip) bool {
				return p.ContractID == c.ContractID && p.PeriodStart == in.PeriodStart
			})
			if err != nil {
				return nil, err
			}
			if len(dup) > 0 {
				return nil, domain.ErrAlreadyExists{Entity: "payslip", Field: "period_start", Value: in.PeriodStart}
			}
			gross, err := grossPay(c, in.Hours)
			if err != nil {
				return nil, err
			}
			id, err := payslips.Mint(tx)
			if err != nil {
				return nil, err
			}
			p := Payslip{
				PayslipID:   domain.ID(id),
				UserID:      c.UserID,
				ContractID:  c.ContractID,
				PeriodStart: in.PeriodStart,
				PeriodEnd:   in.PeriodEnd,
				Hours:       in.Hours,
				GrossAmount: gross,
				Currency:    c.Currency,
				IssuedAt:    tx.Now(),
			}
			if err := payslips.Insert(tx, id, p); err != nil {
				return nil, err
			}
			return p, nil
		}, core.WithMinimum("hours", 0))
}

func grossPay(c Contract, hours float64) (float64, error) {
	switch c.RateType {
	case "hourly":
		if hours <= 0 {
			return 0, domain.ErrInvalidArgument{Field: "hours", Reason: "required for hourly contracts"}
		}
		return roundCents(c.Rate * hours), nil
	case "monthly":
		return roundCents(c.Rate), nil
	case "annual":
		return roundCents(c.Rate / 12), nil
	default:
		return 0, domain.ErrInvalidState{Entity: "contract", ID: c.ContractID.String(), From: "rate_type " + c.RateType}
	}
}

func listUserPayslips() core.Descriptor {
	return core.NewTool("list_user_payslips",
		"List an employee's payslips, most recent period first.",
		func(tx domain.Tx, in userRef) (any, error) {
			if !users.Exists(tx, in.UserID.String()) {
				return nil, domain.ErrNotFound{Entity: "user", ID: in.UserID.String()}
			}
			out, err := payslips.Filter(tx, func(p Payslip) bool { return p.UserID == in.UserID })
			if err != nil {
				return nil, err
			}
			sort.Slice(out, func(i, j int) bool {
				if out[i].PeriodStart != out[j].PeriodStart {
					return out[i].PeriodStart > out[j].PeriodStart
				}
				return numericLess(out[j].PayslipID, out[i].PayslipID)
			})
			return out, nil
		}, core.ReadOnly())
}

func numericLess(a, b domain.ID) bool {
	x, errA := strconv.Atoi(a.String())
	y, errB := strconv.Atoi(b.String())
	if errA == nil && errB == nil {
		return x < y
	}
	return a < b
}
