// Package incident provides the incident management domain: incidents move
// from open to closed while responders comment and file reports.
package incident

import (
	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

// Domain is the plugin and dataset name.
const Domain = "incident_management"

// Interfaces exposed by the plugin.
const (
	ManagerInterface   = "interface_1"
	ResponderInterface = "interface_2"
	pluginVersion      = "0.1.4"
)

// Plugin implements the incident_management domain.
type Plugin struct{}

// New constructs an incident plugin instance.
func New() Plugin {
	return Plugin{}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return Domain }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return pluginVersion }

// Register declares collections, the incident lifecycle and both tool surfaces.
func (Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterCollection(
		domain.CollectionSpec{Name: colIncidents, IDPolicy: domain.IDPolicy{Prefix: "INC", Width: 4}},
		domain.CollectionSpec{Name: colComments},
		domain.CollectionSpec{Name: colReports},
		domain.CollectionSpec{Name: colUsers},
	)
	registry.RegisterStateMachine(incidentLifecycle)

	registry.RegisterTools(ManagerInterface,
		createIncident(),
		getIncident(),
		listIncidents(),
		assignIncident(),
		updateIncidentStatus(),
		addIncidentComment(),
		generateIncidentReport(),
		listIncidentReports(),
	)
	registry.RegisterTools(ResponderInterface,
		getIncident(),
		listIncidents(),
		addIncidentComment(),
		listIncidentReports(),
	)
	return nil
}
