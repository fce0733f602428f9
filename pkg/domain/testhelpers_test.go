package domain

import "fmt"

// mapTx is a minimal Tx over nested maps for exercising helpers without the
// memory store.
type mapTx struct {
	data  map[Collection]map[string]Record
	order map[Collection][]string
	specs map[Collection]IDPolicy
}

func newMapTx(collections ...Collection) *mapTx {
	tx := &mapTx{
		data:  make(map[Collection]map[string]Record),
		order: make(map[Collection][]string),
		specs: make(map[Collection]IDPolicy),
	}
	for _, c := range collections {
		tx.data[c] = make(map[string]Record)
	}
	return tx
}

func (m *mapTx) Get(c Collection, id string) (Record, error) {
	rec, ok := m.data[c][id]
	if !ok {
		return nil, ErrNotFound{Entity: string(c), ID: id}
	}
	return rec.Clone(), nil
}

func (m *mapTx) Exists(c Collection, id string) bool {
	_, ok := m.data[c][id]
	return ok
}

func (m *mapTx) Scan(c Collection) []Entry {
	out := make([]Entry, 0, len(m.order[c]))
	for _, id := range m.order[c] {
		out = append(out, Entry{ID: id, Record: m.data[c][id].Clone()})
	}
	return out
}

func (m *mapTx) Now() string { return "2025-01-01T00:00:00Z" }

func (m *mapTx) Put(c Collection, id string, rec Record) error {
	if _, ok := m.data[c]; !ok {
		return fmt.Errorf("unknown collection %s", c)
	}
	if _, ok := m.data[c][id]; !ok {
		m.order[c] = append(m.order[c], id)
	}
	m.data[c][id] = rec.Clone()
	return nil
}

func (m *mapTx) Insert(c Collection, id string, rec Record) error {
	if m.Exists(c, id) {
		return ErrAlreadyExists{Entity: string(c), ID: id}
	}
	return m.Put(c, id, rec)
}

func (m *mapTx) Delete(c Collection, id string) (Record, error) {
	rec, err := m.Get(c, id)
	if err != nil {
		return nil, err
	}
	delete(m.data[c], id)
	for i, k := range m.order[c] {
		if k == id {
			m.order[c] = append(m.order[c][:i], m.order[c][i+1:]...)
			break
		}
	}
	return rec, nil
}

func (m *mapTx) MintID(c Collection) (string, error) {
	return m.specs[c].Next(c, m.order[c])
}
