package incident

import (
	"testing"

	"toolcore/internal/infra/persistence/memory"
	"toolcore/pkg/domain"
	"toolcore/plugins/testhelper"
)

func oncall() memory.Snapshot {
	return testhelper.NewSeed().
		Add(colUsers, "1", domain.Record{"user_id": "1", "name": "Ana Petrov", "role": "sre", "status": "active"}).
		Add(colUsers, "2", domain.Record{"user_id": "2", "name": "Ben Okafor", "role": "sre", "status": "inactive"}).
		Add(colIncidents, "INC0001", domain.Record{
			"incident_id": "INC0001", "title": "Checkout latency", "description": "p99 over 4s", "severity": "high",
			"status": "investigating", "reported_by": "1", "created_at": "2025-06-30T08:00:00Z", "updated_at": "2025-06-30T08:00:00Z",
		}).
		Add(colReports, "1", domain.Record{"report_id": "1", "incident_id": "INC0001", "generated_by": "1", "report_date": "2025-06-30T09:00:00Z", "status": "investigating", "severity": "high", "comment_count": 0, "summary": "first"}).
		Add(colReports, "2", domain.Record{"report_id": "2", "incident_id": "INC0001", "generated_by": "1", "report_date": "2025-06-30T12:00:00Z", "status": "investigating", "severity": "high", "comment_count": 0, "summary": "second"}).
		Snapshot()
}

func TestIncidentLifecycleIsMonotonic(t *testing.T) {
	s := testhelper.New(t, New()).Session(ManagerInterface, oncall())

	inc := s.Object("create_incident", map[string]any{"title": "DNS outage", "description": "resolver timeouts", "severity": "critical", "reported_by": 1})
	id := inc["incident_id"]
	if id != "INC0002" || inc["status"] != StatusOpen || inc["reported_by"] != "1" {
		t.Fatalf("unexpected incident: %v", inc)
	}
	s.Fail("update_incident_status", map[string]any{"incident_id": id, "status": StatusOpen}, domain.KindInvalidState)
	resolved := s.Object("update_incident_status", map[string]any{"incident_id": id, "status": StatusResolved})
	if resolved["resolved_at"] != testhelper.NowString {
		t.Fatalf("expected resolved_at stamp, got %v", resolved)
	}
	s.Fail("update_incident_status", map[string]any{"incident_id": id, "status": StatusInvestigating}, domain.KindInvalidState)
	s.OK("update_incident_status", map[string]any{"incident_id": id, "status": StatusClosed})
	s.Fail("update_incident_status", map[string]any{"incident_id": id, "status": StatusClosed}, domain.KindInvalidState)
	s.Fail("update_incident_status", map[string]any{"incident_id": id, "status": "reopened"}, domain.KindInvalidArgument)
	s.Fail("assign_incident", map[string]any{"incident_id": id, "user_id": "1"}, domain.KindInvalidState)
	s.Fail("add_incident_comment", map[string]any{"incident_id": id, "user_id": "1", "text": "late note"}, domain.KindInvalidState)
}

func TestCreateIncidentValidation(t *testing.T) {
	s := testhelper.New(t, New()).Session(ManagerInterface, oncall())
	s.Fail("create_incident", map[string]any{"title": "x", "description": "y", "severity": "urgent", "reported_by": "1"}, domain.KindInvalidArgument)
	s.Fail("create_incident", map[string]any{"title": "  ", "description": "y", "severity": "low", "reported_by": "1"}, domain.KindInvalidArgument)
	s.Fail("create_incident", map[string]any{"title": "x", "description": "y", "severity": "low", "reported_by": "99"}, domain.KindNotFound)
	s.Fail("create_incident", map[string]any{"title": "x", "severity": "low", "reported_by": "1"}, domain.KindInvalidArgument)
}

func TestAssignAndComment(t *testing.T) {
	s := testhelper.New(t, New()).Session(ManagerInterface, oncall())

	s.Fail("assign_incident", map[string]any{"incident_id": "INC0001", "user_id": "2"}, domain.KindInvalidState)
	s.Fail("assign_incident", map[string]any{"incident_id": "INC0001", "user_id": "7"}, domain.KindNotFound)
	assigned := s.Object("assign_incident", map[string]any{"incident_id": "INC0001", "user_id": "1"})
	if assigned["assigned_to"] != "1" {
		t.Fatalf("unexpected assignment: %v", assigned)
	}
	mine := s.List("list_incidents", map[string]any{"assigned_to": "1"})
	if len(mine) != 1 {
		t.Fatalf("expected one assigned incident, got %v", mine)
	}

	c := s.Object("add_incident_comment", map[string]any{"incident_id": "INC0001", "user_id": "1", "text": " rolled back deploy "})
	if c["comment_id"] != "1" || c["text"] != "rolled back deploy" {
		t.Fatalf("unexpected comment: %v", c)
	}
	s.Fail("add_incident_comment", map[string]any{"incident_id": "INC0001", "user_id": "1", "text": ""}, domain.KindInvalidArgument)

	report := s.Object("generate_incident_report", map[string]any{"incident_id": "INC0001", "generated_by": "1"})
	if report["report_id"] != "3" || report["comment_count"] != 1.0 || report["report_date"] != testhelper.NowString {
		t.Fatalf("unexpected report: %v", report)
	}
	if report["summary"] != "INC0001 [high] Checkout latency: investigating, 1 comments" {
		t.Fatalf("unexpected summary: %v", report["summary"])
	}
}

func TestListIncidentReportsNewestFirst(t *testing.T) {
	h := testhelper.New(t, New())
	manager := h.Session(ManagerInterface, oncall())
	manager.OK("generate_incident_report", map[string]any{"incident_id": "INC0001", "generated_by": "1"})

	list := manager.List("list_incident_reports", map[string]any{"incident_id": "INC0001"})
	var order []any
	for _, r := range list {
		order = append(order, r["report_id"])
	}
	if len(order) != 3 || order[0] != "3" || order[1] != "2" || order[2] != "1" {
		t.Fatalf("expected newest first, got %v", order)
	}

	responder := h.Session(ResponderInterface, oncall())
	if got := responder.List("list_incident_reports", nil); len(got) != 2 || got[0]["report_id"] != "2" {
		t.Fatalf("unexpected responder view: %v", got)
	}
	responder.Fail("update_incident_status", map[string]any{"incident_id": "INC0001", "status": StatusResolved}, domain.KindUnknownTool)
	if none := responder.List("list_incident_reports", map[string]any{"incident_id": "INC0404"}); len(none) != 0 {
		t.Fatalf("expected no reports, got %v", none)
	}
}
