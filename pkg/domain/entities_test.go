package domain

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshalAcceptsIntegersAndStrings(t *testing.T) {
	cases := []struct {
		in   string
		want ID
		err  bool
	}{
		{`"SO0001"`, "SO0001", false},
		{`42`, "42", false},
		{`42.0`, "42", false},
		{`null`, "", false},
		{`4.5`, "", true},
		{`true`, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tc.in), &id)
			if tc.err {
				if err == nil {
					t.Fatalf("expected error for %s", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if id != tc.want {
				t.Fatalf("got %q want %q", id, tc.want)
			}
		})
	}
}

func TestCanonicalID(t *testing.T) {
	cases := []struct {
		in   any
		want string
		ok   bool
	}{
		{"7", "7", true},
		{float64(7), "7", true},
		{float64(7.5), "", false},
		{float64(1e20), "", false},
		{float64(-1e19), "", false},
		{float64(-9007199254740992), "-9007199254740992", true},
		{json.Number("1e20"), "", false},
		{json.Number("2e3"), "2000", true},
		{7, "7", true},
		{int64(12), "12", true},
		{json.Number("3"), "3", true},
		{ID("x"), "x", true},
		{true, "", false},
	}
	for _, tc := range cases {
		got, ok := CanonicalID(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("CanonicalID(%v) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRecordCloneAndAccessors(t *testing.T) {
	rec := Record{"status": "active", "amount": float64(10), "items": []any{map[string]any{"sku": "a"}}}
	cp := rec.Clone()
	cp["items"].([]any)[0].(map[string]any)["sku"] = "b"
	if rec["items"].([]any)[0].(map[string]any)["sku"] != "a" {
		t.Fatalf("clone shares nested state")
	}
	if rec.Status() != "active" || rec.String("amount") != "10" || rec.String("missing") != "" {
		t.Fatalf("unexpected accessors: %q %q", rec.Status(), rec.String("amount"))
	}
	if Record(nil).Clone() != nil {
		t.Fatalf("nil clone should stay nil")
	}
}

func TestIsIDField(t *testing.T) {
	for name, want := range map[string]bool{"id": true, "user_id": true, "card_ids": true, "identity": false, "amount": false} {
		if IsIDField(name) != want {
			t.Fatalf("IsIDField(%q) != %v", name, want)
		}
	}
}
