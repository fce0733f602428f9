// Package testhelper hosts the session harness plugin tests use to drive their
// tools through the real dispatcher with a pinned clock.
package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"toolcore/internal/core"
	"toolcore/internal/infra/persistence/memory"
	"toolcore/pkg/domain"
)

// Now is the instant every harness store reports.
var Now = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

// NowString is Now formatted the way handlers see it.
var NowString = Now.Format(domain.TimestampLayout)

// Harness installs one plugin into a fresh service.
type Harness struct {
	t      testing.TB
	svc    *core.Service
	domain string
}

// New installs plugin and fails the test on any registration error.
func New(t testing.TB, plugin core.Plugin) *Harness {
	t.Helper()
	svc := core.NewService(core.WithClock(core.ClockFunc(func() time.Time { return Now })))
	if _, err := svc.InstallPlugin(plugin); err != nil {
		t.Fatalf("install %s: %v", plugin.Name(), err)
	}
	return &Harness{t: t, svc: svc, domain: plugin.Name()}
}

// Service exposes the underlying service.
func (h *Harness) Service() *core.Service { return h.svc }

// Session opens iface seeded with seed.
func (h *Harness) Session(iface string, seed memory.Snapshot) *Session {
	h.t.Helper()
	s, err := h.svc.OpenSession(h.domain, iface, seed)
	if err != nil {
		h.t.Fatalf("open %s/%s: %v", h.domain, iface, err)
	}
	return &Session{t: h.t, Session: s}
}

// Session wraps core.Session with assertion helpers.
type Session struct {
	t testing.TB
	*core.Session
}

// Do dispatches name with args encoded as JSON.
func (s *Session) Do(name string, args map[string]any) core.Envelope {
	s.t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		s.t.Fatalf("encode %s args: %v", name, err)
	}
	return s.Call(context.Background(), name, raw)
}

// OK dispatches and fails the test unless the envelope succeeded, decoding the
// value into a generic map or slice.
func (s *Session) OK(name string, args map[string]any) any {
	s.t.Helper()
	env := s.Do(name, args)
	if !env.OK {
		s.t.Fatalf("%s failed: %v", name, env.Error)
	}
	var out any
	if err := env.Decode(&out); err != nil {
		s.t.Fatalf("decode %s: %v", name, err)
	}
	return out
}

// Object is OK for tools returning a JSON object.
func (s *Session) Object(name string, args map[string]any) map[string]any {
	s.t.Helper()
	out, ok := s.OK(name, args).(map[string]any)
	if !ok {
		s.t.Fatalf("%s: expected object result", name)
	}
	return out
}

// List is OK for tools returning a JSON array of objects.
func (s *Session) List(name string, args map[string]any) []map[string]any {
	s.t.Helper()
	raw, ok := s.OK(name, args).([]any)
	if !ok {
		s.t.Fatalf("%s: expected array result", name)
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			s.t.Fatalf("%s: expected array of objects", name)
		}
		out = append(out, obj)
	}
	return out
}

// Fail dispatches and fails the test unless the envelope carries kind. The
// store must be unchanged by the failed call.
func (s *Session) Fail(name string, args map[string]any, kind domain.ErrorKind) *core.ErrorBody {
	s.t.Helper()
	before := s.Snapshot()
	env := s.Do(name, args)
	if env.OK {
		s.t.Fatalf("%s: expected %s, got success %s", name, kind, env.Value)
	}
	if env.Kind() != kind {
		s.t.Fatalf("%s: expected %s, got %s (%s)", name, kind, env.Kind(), env.Error.Message)
	}
	after, _ := json.Marshal(s.Snapshot())
	if want, _ := json.Marshal(before); string(after) != string(want) {
		s.t.Fatalf("%s: failed call mutated the store", name)
	}
	return env.Error
}

// Record reads a stored record, failing the test when absent.
func (s *Session) Record(collection domain.Collection, id string) domain.Record {
	s.t.Helper()
	var rec domain.Record
	err := s.Store().View(context.Background(), func(v domain.View) error {
		var err error
		rec, err = v.Get(collection, id)
		return err
	})
	if err != nil {
		s.t.Fatalf("read %s %s: %v", collection, id, err)
	}
	return rec
}

// Exists reports whether a record is stored.
func (s *Session) Exists(collection domain.Collection, id string) bool {
	var found bool
	_ = s.Store().View(context.Background(), func(v domain.View) error {
		found = v.Exists(collection, id)
		return nil
	})
	return found
}

// Seed builds a snapshot from id-keyed records in the given order.
type Seed struct {
	snap memory.Snapshot
}

// NewSeed starts an empty snapshot.
func NewSeed() *Seed {
	return &Seed{snap: make(memory.Snapshot)}
}

// Add appends a record to collection.
func (s *Seed) Add(collection domain.Collection, id string, rec domain.Record) *Seed {
	s.snap[collection] = append(s.snap[collection], domain.Entry{ID: id, Record: rec})
	return s
}

// Snapshot returns the built snapshot.
func (s *Seed) Snapshot() memory.Snapshot { return s.snap }
