package incident

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

type incidentRef struct {
	IncidentID domain.ID `json:"incident_id" jsonschema:"incident id such as INC0001"`
}

type createIncidentInput struct {
	Title       string    `json:"title" jsonschema:"short summary"`
	Description string    `json:"description" jsonschema:"what happened and what is affected"`
	Severity    string    `json:"severity" jsonschema:"impact level"`
	ReportedBy  domain.ID `json:"reported_by" jsonschema:"user reporting the incident"`
}

type listIncidentsInput struct {
	Status     string    `json:"status,omitempty" jsonschema:"only incidents in this status"`
	Severity   string    `json:"severity,omitempty" jsonschema:"only incidents of this severity"`
	AssignedTo domain.ID `json:"assigned_to,omitempty" jsonschema:"only incidents assigned to this user"`
}

type assignInput struct {
	IncidentID domain.ID `json:"incident_id" jsonschema:"incident to assign"`
	UserID     domain.ID `json:"user_id" jsonschema:"responder taking ownership"`
}

type statusInput struct {
	IncidentID domain.ID `json:"incident_id" jsonschema:"incident to update"`
	Status     string    `json:"status" jsonschema:"new status; statuses only move forward"`
}

type commentInput struct {
	IncidentID domain.ID `json:"incident_id" jsonschema:"incident commented on"`
	UserID     domain.ID `json:"user_id" jsonschema:"comment author"`
	Text       string    `json:"text" jsonschema:"comment body"`
}

type reportInput struct {
	IncidentID  domain.ID `json:"incident_id" jsonschema:"incident to report on"`
	GeneratedBy domain.ID `json:"generated_by" jsonschema:"user generating the report"`
}

type listReportsInput struct {
	IncidentID domain.ID `json:"incident_id,omitempty" jsonschema:"only reports for this incident"`
}

func createIncident() core.Descriptor {
	return core.NewTool("create_incident",
		"Open a new incident.",
		func(tx domain.Tx, in createIncidentInput) (any, error) {
			if strings.TrimSpace(in.Title) == "" {
				return nil, domain.ErrInvalidArgument{Field: "title", Reason: "must not be blank"}
			}
			if !users.Exists(tx, in.ReportedBy.String()) {
				return nil, domain.ErrNotFound{Entity: "user", ID: in.ReportedBy.String()}
			}
			id, err := incidents.Mint(tx)
			if err != nil {
				return nil, err
			}
			now := tx.Now()
			inc := Incident{
				IncidentID:  domain.ID(id),
				Title:       strings.TrimSpace(in.Title),
				Description: in.Description,
				Severity:    in.Severity,
				Status:      StatusOpen,
				ReportedBy:  in.ReportedBy,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := incidents.Insert(tx, id, inc); err != nil {
				return nil, err
			}
			return inc, nil
		}, core.WithEnum("severity", severities...))
}

func getIncident() core.Descriptor {
	return core.NewTool("get_incident",
		"Return an incident with its status and assignee.",
		func(tx domain.Tx, in incidentRef) (any, error) {
			return incidents.Get(tx, in.IncidentID.String())
		}, core.ReadOnly())
}

func listIncidents() core.Descriptor {
	return core.NewTool("list_incidents",
		"List incidents ordered by id, optionally filtered by status, severity or assignee.",
		func(tx domain.Tx, in listIncidentsInput) (any, error) {
			out, err := incidents.Filter(tx, func(inc Incident) bool {
				return (in.Status == "" || inc.Status == in.Status) &&
					(in.Severity == "" || inc.Severity == in.Severity) &&
					(in.AssignedTo == "" || inc.AssignedTo == in.AssignedTo)
			})
			if err != nil {
				return nil, err
			}
			sort.Slice(out, func(i, j int) bool { return out[i].IncidentID < out[j].IncidentID })
			return out, nil
		}, core.ReadOnly(),
		core.WithEnum("status", incidentLifecycle.States...),
		core.WithEnum("severity", severities...))
}

func assignIncident() core.Descriptor {
	return core.NewTool("assign_incident",
		"Assign an incident that is not closed to a responder.",
		func(tx domain.Tx, in assignInput) (any, error) {
			inc, err := incidents.Get(tx, in.IncidentID.String())
			if err != nil {
				return nil, err
			}
			if incidentLifecycle.IsTerminal(inc.Status) {
				return nil, domain.ErrInvalidState{Entity: "incident", ID: inc.IncidentID.String(), From: inc.Status}
			}
			user, err := users.Get(tx, in.UserID.String())
			if err != nil {
				return nil, err
			}
			if user.Status != "" && user.Status != "active" {
				return nil, domain.ErrInvalidState{Entity: "user", ID: user.UserID.String(), From: user.Status}
			}
			inc.AssignedTo = user.UserID
			inc.UpdatedAt = tx.Now()
			if err := incidents.Put(tx, inc.IncidentID.String(), inc); err != nil {
				return nil, err
			}
			return inc, nil
		})
}

func updateIncidentStatus() core.Descriptor {
	return core.NewTool("update_incident_status",
		"Move an incident forward: open, investigating, resolved, closed.",
		func(tx domain.Tx, in statusInput) (any, error) {
			inc, err := incidents.Get(tx, in.IncidentID.String())
			if err != nil {
				return nil, err
			}
			if err := incidentLifecycle.Transition(inc.IncidentID.String(), inc.Status, in.Status); err != nil {
				return nil, err
			}
			now := tx.Now()
			if in.Status == StatusResolved || (in.Status == StatusClosed && inc.ResolvedAt == "") {
				inc.ResolvedAt = now
			}
			inc.Status = in.Status
			inc.UpdatedAt = now
			if err := incidents.Put(tx, inc.IncidentID.String(), inc); err != nil {
				return nil, err
			}
			return inc, nil
		}, core.WithEnum("status", incidentLifecycle.States...))
}

func addIncidentComment() core.Descriptor {
	return core.NewTool("add_incident_comment",
		"Add a comment to an incident that is not closed.",
		func(tx domain.Tx, in commentInput) (any, error) {
			text := strings.TrimSpace(in.Text)
			if text == "" {
				return nil, domain.ErrInvalidArgument{Field: "text", Reason: "must not be blank"}
			}
			inc, err := incidents.Get(tx, in.IncidentID.String())
			if err != nil {
				return nil, err
			}
			if incidentLifecycle.IsTerminal(inc.Status) {
				return nil, domain.ErrInvalidState{Entity: "incident", ID: inc.IncidentID.String(), From: inc.Status}
			}
			if !users.Exists(tx, in.UserID.String()) {
				return nil, domain.ErrNotFound{Entity: "user", ID: in.UserID.String()}
			}
			id, err := comments.Mint(tx)
			if err != nil {
				return nil, err
			}
			c := Comment{CommentID: domain.ID(id), IncidentID: inc.IncidentID, UserID: in.UserID, Text: text, CreatedAt: tx.Now()}
			if err := comments.Insert(tx, id, c); err != nil {
				return nil, err
			}
			return c, nil
		})
}

func generateIncidentReport() core.Descriptor {
	return core.NewTool("generate_incident_report",
		"Snapshot an incident's status, severity and comment count into a report.",
		func(tx domain.Tx, in reportInput) (any, error) {
			inc, err := incidents.Get(tx, in.IncidentID.String())
			if err != nil {
				return nil, err
			}
			if !users.Exists(tx, in.GeneratedBy.String()) {
				return nil, domain.ErrNotFound{Entity: "user", ID: in.GeneratedBy.String()}
			}
			related, err := comments.Filter(tx, func(c Comment) bool { return c.IncidentID == inc.IncidentID })
			if err != nil {
				return nil, err
			}
			id, err := reports.Mint(tx)
			if err != nil {
				return nil, err
			}
			r := Report{
				ReportID:     domain.ID(id),
				IncidentID:   inc.IncidentID,
				GeneratedBy:  in.GeneratedBy,
				ReportDate:   tx.Now(),
				Status:       inc.Status,
				Severity:     inc.Severity,
				CommentCount: len(related),
				Summary:      fmt.Sprintf("%s [%s] %s: %s, %d comments", inc.IncidentID, inc.Severity, inc.Title, inc.Status, len(related)),
			}
			if err := reports.Insert(tx, id, r); err != nil {
				return nil, err
			}
			return r, nil
		})
}

func listIncidentReports() core.Descriptor {
	return core.NewTool("list_incident_reports",
		"List incident reports, newest report_date first.",
		func(tx domain.Tx, in listReportsInput) (any, error) {
			out, err := reports.Filter(tx, func(r Report) bool {
				return in.IncidentID == "" || r.IncidentID == in.IncidentID
			})
			if err != nil {
				return nil, err
			}
			sort.SliceStable(out, func(i, j int) bool {
				if out[i].ReportDate != out[j].ReportDate {
					return out[i].ReportDate > out[j].ReportDate
				}
				return numericLess(out[j].ReportID, out[i].ReportID)
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
