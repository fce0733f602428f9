// Package memory provides the in-memory transactional record store that tool
// handlers run against. A fresh store is expected per benchmark run.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"toolcore/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain store interfaces.
var (
	_ domain.Store = (*Store)(nil)
	_ domain.Txn   = (*transaction)(nil)
)

var (
	// ErrConflict is returned by Commit when another transaction committed after Begin.
	ErrConflict = errors.New("memory store: transaction base is stale")
	// ErrTxnClosed is returned when a finished transaction is used again.
	ErrTxnClosed = errors.New("memory store: transaction already finished")
)

func mustCollection(ok bool, c domain.Collection) {
	if !ok {
		panic(fmt.Errorf("memory store: unknown collection %q", c))
	}
}

// table holds one collection. Stored records are never mutated in place, so a
// shallow copy of the map is a consistent snapshot.
type table struct {
	records map[string]domain.Record
	order   []string
}

func newTable() *table {
	return &table{records: make(map[string]domain.Record)}
}

func (t *table) clone() *table {
	cp := &table{
		records: make(map[string]domain.Record, len(t.records)),
		order:   append([]string(nil), t.order...),
	}
	for k, v := range t.records {
		cp.records[k] = v
	}
	return cp
}

func (t *table) put(id string, rec domain.Record) {
	if _, exists := t.records[id]; !exists {
		t.order = append(t.order, id)
	}
	t.records[id] = rec
}

func (t *table) remove(id string) {
	delete(t.records, id)
	for i, k := range t.order {
		if k == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

func (t *table) entries() []domain.Entry {
	out := make([]domain.Entry, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, domain.Entry{ID: id, Record: t.records[id].Clone()})
	}
	return out
}

type memoryState map[domain.Collection]*table

func (s memoryState) clone() memoryState {
	cp := make(memoryState, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// Snapshot captures the ordered contents of every collection.
type Snapshot map[domain.Collection][]domain.Entry

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for c, entries := range s {
		cp := make([]domain.Entry, len(entries))
		for i, e := range entries {
			cp[i] = domain.Entry{ID: e.ID, Record: e.Record.Clone()}
		}
		out[c] = cp
	}
	return out
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects the time source used for transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// Store is a namespaced, transactional in-memory record store.
type Store struct {
	mu         sync.Mutex
	state      memoryState
	specs      map[domain.Collection]domain.CollectionSpec
	engine     *domain.RulesEngine
	nowFn      func() time.Time
	generation uint64
}

// NewStore constructs a store with the declared collections.
func NewStore(engine *domain.RulesEngine, specs []domain.CollectionSpec, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  make(memoryState),
		specs:  make(map[domain.Collection]domain.CollectionSpec),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Declare(specs...)
	return s
}

// Declare adds collections; already declared collections keep their records.
func (s *Store) Declare(specs ...domain.CollectionSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	for _, spec := range specs {
		s.specs[spec.Name] = spec
		if _, ok := next[spec.Name]; !ok {
			next[spec.Name] = newTable()
		}
	}
	s.state = next
}

// Collections lists declared collections sorted by name.
func (s *Store) Collections() []domain.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Collection, 0, len(s.state))
	for c := range s.state {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RulesEngine exposes the engine evaluated at commit.
func (s *Store) RulesEngine() *domain.RulesEngine {
	return s.engine
}

// NowFunc exposes the store's time source.
func (s *Store) NowFunc() func() time.Time {
	return s.nowFn
}

// Now returns the current store time formatted with domain.TimestampLayout.
func (s *Store) Now() string {
	return s.nowFn().UTC().Format(domain.TimestampLayout)
}

// ExportState returns a deep copy of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Snapshot, len(s.state))
	for c, t := range s.state {
		out[c] = t.entries()
	}
	return out
}

// ImportState replaces the contents of the snapshot's collections. Every
// collection in the snapshot must be declared and ids must be unique.
func (s *Store) ImportState(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	for c, entries := range snapshot {
		if _, ok := next[c]; !ok {
			return fmt.Errorf("import: unknown collection %q", c)
		}
		t := newTable()
		for _, e := range entries {
			if e.ID == "" {
				return fmt.Errorf("import %s: entry without id", c)
			}
			if _, dup := t.records[e.ID]; dup {
				return fmt.Errorf("import %s: duplicate id %s", c, e.ID)
			}
			t.put(e.ID, e.Record.Clone())
		}
		next[c] = t
	}
	s.state = next
	s.generation++
	return nil
}

// Begin opens a transaction over a snapshot of the committed state.
func (s *Store) Begin() (domain.Txn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	specs := make(map[domain.Collection]domain.CollectionSpec, len(s.specs))
	for k, v := range s.specs {
		specs[k] = v
	}
	return &transaction{
		store:      s,
		base:       s.state.clone(),
		working:    make(map[domain.Collection]*table),
		specs:      specs,
		now:        s.nowFn().UTC().Format(domain.TimestampLayout),
		generation: s.generation,
	}, nil
}

// RunInTransaction applies fn atomically: either every mutation lands or none do.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Tx) error) (domain.Result, error) {
	tx, err := s.Begin()
	if err != nil {
		return domain.Result{}, err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return domain.Result{}, err
	}
	return tx.Commit(ctx)
}

// View runs fn against a read-only snapshot of the committed state.
func (s *Store) View(_ context.Context, fn func(domain.View) error) error {
	s.mu.Lock()
	view := stateView{state: s.state.clone(), now: s.nowFn().UTC().Format(domain.TimestampLayout)}
	s.mu.Unlock()
	return fn(view)
}

// stateView reads committed state outside a transaction.
type stateView struct {
	state memoryState
	now   string
}

func (v stateView) table(c domain.Collection) *table {
	t, ok := v.state[c]
	mustCollection(ok, c)
	return t
}

func (v stateView) Get(c domain.Collection, id string) (domain.Record, error) {
	rec, ok := v.table(c).records[id]
	if !ok {
		return nil, domain.ErrNotFound{Entity: string(c), ID: id}
	}
	return rec.Clone(), nil
}

func (v stateView) Exists(c domain.Collection, id string) bool {
	_, ok := v.table(c).records[id]
	return ok
}

func (v stateView) Scan(c domain.Collection) []domain.Entry { return v.table(c).entries() }

func (v stateView) Now() string { return v.now }

type transaction struct {
	store      *Store
	base       memoryState
	working    map[domain.Collection]*table
	specs      map[domain.Collection]domain.CollectionSpec
	changes    []domain.Change
	now        string
	generation uint64
	done       bool
}

func (tx *transaction) read(c domain.Collection) *table {
	if t, ok := tx.working[c]; ok {
		return t
	}
	t, ok := tx.base[c]
	mustCollection(ok, c)
	return t
}

// write returns the working copy of c, cloning it on first use.
func (tx *transaction) write(c domain.Collection) *table {
	if t, ok := tx.working[c]; ok {
		return t
	}
	base, ok := tx.base[c]
	mustCollection(ok, c)
	t := base.clone()
	tx.working[c] = t
	return t
}

func (tx *transaction) Get(c domain.Collection, id string) (domain.Record, error) {
	rec, ok := tx.read(c).records[id]
	if !ok {
		return nil, domain.ErrNotFound{Entity: string(c), ID: id}
	}
	return rec.Clone(), nil
}

func (tx *transaction) Exists(c domain.Collection, id string) bool {
	_, ok := tx.read(c).records[id]
	return ok
}

func (tx *transaction) Scan(c domain.Collection) []domain.Entry {
	return tx.read(c).entries()
}

func (tx *transaction) Now() string { return tx.now }

func (tx *transaction) Put(c domain.Collection, id string, rec domain.Record) error {
	if tx.done {
		return ErrTxnClosed
	}
	if id == "" {
		if v, ok := domain.CanonicalID(rec["id"]); ok {
			id = v
		}
	}
	if id == "" {
		return fmt.Errorf("put %s: record id required", c)
	}
	t := tx.write(c)
	before, exists := t.records[id]
	stored := rec.Clone()
	t.put(id, stored)
	change := domain.Change{Collection: c, Action: domain.ActionCreate, ID: id, After: stored.Clone()}
	if exists {
		change.Action = domain.ActionUpdate
		change.Before = before.Clone()
	}
	tx.changes = append(tx.changes, change)
	return nil
}

func (tx *transaction) Insert(c domain.Collection, id string, rec domain.Record) error {
	if tx.Exists(c, id) {
		return domain.ErrAlreadyExists{Entity: string(c), ID: id}
	}
	return tx.Put(c, id, rec)
}

func (tx *transaction) Delete(c domain.Collection, id string) (domain.Record, error) {
	if tx.done {
		return nil, ErrTxnClosed
	}
	if !tx.Exists(c, id) {
		return nil, domain.ErrNotFound{Entity: string(c), ID: id}
	}
	t := tx.write(c)
	before := t.records[id]
	t.remove(id)
	tx.changes = append(tx.changes, domain.Change{Collection: c, Action: domain.ActionDelete, ID: id, Before: before.Clone()})
	return before.Clone(), nil
}

func (tx *transaction) MintID(c domain.Collection) (string, error) {
	t := tx.read(c)
	return tx.specs[c].IDPolicy.Next(c, t.order)
}

func (tx *transaction) Changes() []domain.Change {
	return append([]domain.Change(nil), tx.changes...)
}

func (tx *transaction) Commit(ctx context.Context) (domain.Result, error) {
	if tx.done {
		return domain.Result{}, ErrTxnClosed
	}
	tx.done = true
	if len(tx.working) == 0 {
		return domain.Result{}, nil
	}

	var result domain.Result
	if tx.store.engine != nil {
		res, err := tx.store.engine.Evaluate(ctx, txView{tx: tx}, tx.Changes())
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != tx.generation {
		return result, ErrConflict
	}
	next := s.state.clone()
	for c, t := range tx.working {
		next[c] = t
	}
	s.state = next
	s.generation++
	return result, nil
}

func (tx *transaction) Rollback() {
	tx.done = true
	tx.working = nil
	tx.changes = nil
}

// txView exposes the working state to rules without mutation methods.
type txView struct{ tx *transaction }

func (v txView) Get(c domain.Collection, id string) (domain.Record, error) { return v.tx.Get(c, id) }
func (v txView) Exists(c domain.Collection, id string) bool             { return v.tx.Exists(c, id) }
func (v txView) Scan(c domain.Collection) []domain.Entry                { return v.tx.Scan(c) }
func (v txView) Now() string                                            { return v.tx.now }
