package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"toolcore/pkg/domain"
)

func TestEnvelopeWireShape(t *testing.T) {
	ok, err := Success(map[string]any{"order_id": "SO0001"})
	if err != nil {
		t.Fatalf("success: %v", err)
	}
	raw, _ := json.Marshal(ok)
	if string(raw) != `{"ok":true,"value":{"order_id":"SO0001"}}` {
		t.Fatalf("unexpected success wire %s", raw)
	}

	empty, _ := json.Marshal(Envelope{OK: true})
	if string(empty) != `{"ok":true,"value":null}` {
		t.Fatalf("unexpected empty success %s", empty)
	}

	fail := Failure(domain.ErrNotFound{Entity: "invoice", ID: "INV9"})
	raw, _ = json.Marshal(fail)
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["ok"] != false {
		t.Fatalf("expected ok=false: %s", raw)
	}
	body := decoded["error"].(map[string]any)
	if body["kind"] != "NotFound" || body["entity"] != "invoice" || body["id"] != "INV9" {
		t.Fatalf("unexpected error body %v", body)
	}
	if _, hasValue := decoded["value"]; hasValue {
		t.Fatalf("failure must not carry a value: %s", raw)
	}
}

func TestEnvelopeRoundTripKeepsDetails(t *testing.T) {
	in := Failure(domain.ErrAlreadyExists{Entity: "employee", Field: "email", Value: "a@b.c"})
	raw, _ := json.Marshal(in)
	var out Envelope
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Kind() != domain.KindAlreadyExists || out.Error.Details["field"] != "email" {
		t.Fatalf("unexpected envelope %+v", out.Error)
	}
	if _, leaked := out.Error.Details["kind"]; leaked {
		t.Fatalf("kind must not be repeated in details")
	}
}

func TestFailureMapping(t *testing.T) {
	violation := domain.RuleViolationError{Result: domain.Result{Violations: []domain.Violation{{
		Rule: "status_transition", Severity: domain.SeverityBlock, Message: "nope",
		Collection: "orders", EntityID: "7", From: "delivered", To: "pending",
	}}}}
	cases := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"wrapped typed", fmt.Errorf("ctx: %w", domain.ErrAuthorizationDenied{Code: "approval_missing"}), domain.KindAuthorizationDenied},
		{"rule violation", violation, domain.KindInvalidState},
		{"untyped", errors.New("disk on fire"), domain.KindInternal},
		{"nil", nil, domain.KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := Failure(tc.err)
			if env.OK || env.Kind() != tc.want {
				t.Fatalf("kind = %s want %s", env.Kind(), tc.want)
			}
		})
	}
	env := Failure(violation)
	if env.Error.Details["from"] != "delivered" || env.Error.Details["to"] != "pending" || env.Error.Details["id"] != "7" {
		t.Fatalf("unexpected violation details %v", env.Error.Details)
	}
}

func TestEnvelopeTextAndDecode(t *testing.T) {
	s, _ := Success("Order 7 cancelled")
	if s.Text() != "Order 7 cancelled" {
		t.Fatalf("text = %q", s.Text())
	}
	n, _ := Success(1250.5)
	if n.Text() != "1250.5" {
		t.Fatalf("text = %q", n.Text())
	}
	var got float64
	if err := n.Decode(&got); err != nil || got != 1250.5 {
		t.Fatalf("decode = %v %v", got, err)
	}
	if err := (Envelope{}).Decode(&got); err == nil {
		t.Fatalf("expected error decoding an empty failure")
	}
	if Failure(errors.New("x")).Text() != "" {
		t.Fatalf("failures have no text")
	}
}
