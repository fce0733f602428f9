package incident

import "toolcore/pkg/domain"

const (
	colIncidents domain.Collection = "incidents"
	colComments  domain.Collection = "incident_comments"
	colReports   domain.Collection = "incident_reports"
	colUsers     domain.Collection = "users"
)

// Incident statuses, in lifecycle order.
const (
	StatusOpen          = "open"
	StatusInvestigating = "investigating"
	StatusResolved      = "resolved"
	StatusClosed        = "closed"
)

var severities = []string{"low", "medium", "high", "critical"}

// User is a responder or reporter.
type User struct {
	UserID domain.ID `json:"user_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email,omitempty"`
	Role   string    `json:"role,omitempty"`
	Status string    `json:"status,omitempty"`
}

// Incident is a tracked service disruption.
type Incident struct {
	IncidentID  domain.ID `json:"incident_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	ReportedBy  domain.ID `json:"reported_by"`
	AssignedTo  domain.ID `json:"assigned_to,omitempty"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
	ResolvedAt  string    `json:"resolved_at,omitempty"`
}

// Comment is a note on an incident's timeline.
type Comment struct {
	CommentID  domain.ID `json:"comment_id"`
	IncidentID domain.ID `json:"incident_id"`
	UserID     domain.ID `json:"user_id"`
	Text       string    `json:"text"`
	CreatedAt  string    `json:"created_at"`
}

// Report summarizes an incident at the time it was generated.
type Report struct {
	ReportID     domain.ID `json:"report_id"`
	IncidentID   domain.ID `json:"incident_id"`
	GeneratedBy  domain.ID `json:"generated_by"`
	ReportDate   string    `json:"report_date"`
	Status       string    `json:"status"`
	Severity     string    `json:"severity"`
	CommentCount int       `json:"comment_count"`
	Summary      string    `json:"summary"`
}

var (
	users     = domain.NewTable[User](colUsers, "user")
	incidents = domain.NewTable[Incident](colIncidents, "incident")
	comments  = domain.NewTable[Comment](colComments, "incident_comment")
	reports   = domain.NewTable[Report](colReports, "incident_report")
)

// incidentLifecycle is monotonic: open < investigating < resolved < closed.
var incidentLifecycle = domain.StateMachine{
	Collection: colIncidents,
	Entity:     "incident",
	States:     []string{StatusOpen, StatusInvestigating, StatusResolved, StatusClosed},
	Terminal:   []string{StatusClosed},
	Order:      []string{StatusOpen, StatusInvestigating, StatusResolved, StatusClosed},
}
