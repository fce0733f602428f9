// Package hrpayroll provides the HR and payroll domain: employee profiles,
// employment contracts and payslips.
package hrpayroll

import (
	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

// Domain is the plugin and dataset name.
const Domain = "hr_payroll"

// Interfaces exposed by the plugin.
const (
	AdminInterface    = "interface_1"
	EmployeeInterface = "interface_2"
	pluginVersion     = "0.2.0"
)

// Plugin implements the hr_payroll domain.
type Plugin struct{}

// New constructs an hr_payroll plugin instance.
func New() Plugin {
	return Plugin{}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return Domain }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return pluginVersion }

// Register declares collections, lifecycles and both tool surfaces.
func (Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterCollection(
		domain.CollectionSpec{Name: colUsers},
		domain.CollectionSpec{Name: colContracts},
		domain.CollectionSpec{Name: colPayslips},
	)
	registry.RegisterStateMachine(contractLifecycle)
	registry.RegisterStateMachine(userLifecycle)

	registry.RegisterTools(AdminInterface,
		createUserProfile(),
		getUserProfile(),
		updateUserStatus(),
		createContract(),
		activateContract(),
		updateContractPayTerms(),
		closeContract("terminate_contract", "Terminate a draft or active contract early.", ContractTerminated),
		closeContract("end_contract", "End an active contract at the close of its term.", ContractEnded),
		getContract(),
		listUserContracts(),
		generatePayslip(),
	)
	registry.RegisterTools(EmployeeInterface,
		getUserProfile(),
		getContract(),
		listUserContracts(),
		listUserPayslips(),
	)
	return nil
}
