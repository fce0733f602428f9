package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Table is a typed accessor over an untyped collection. Records are converted
// through their JSON form, so T's json tags define the field mapping and any
// dataset fields T does not model survive a Put.
type Table[T any] struct {
	Collection Collection
	Entity     string
}

// NewTable constructs a typed accessor for collection, labelling errors with entity.
func NewTable[T any](collection Collection, entity string) Table[T] {
	return Table[T]{Collection: collection, Entity: entity}
}

// Get loads and decodes the record stored under id.
func (t Table[T]) Get(v View, id string) (T, error) {
	var zero T
	rec, err := v.Get(t.Collection, id)
	if err != nil {
		var nf ErrNotFound
		if errors.As(err, &nf) {
			return zero, ErrNotFound{Entity: t.Entity, ID: id}
		}
		return zero, err
	}
	return t.decode(rec)
}

// Find is Get without the NotFound error.
func (t Table[T]) Find(v View, id string) (T, bool) {
	value, err := t.Get(v, id)
	return value, err == nil
}

// Exists reports whether id is present.
func (t Table[T]) Exists(v View, id string) bool {
	return v.Exists(t.Collection, id)
}

// List decodes every record in insertion order.
func (t Table[T]) List(v View) ([]T, error) {
	return t.Filter(v, nil)
}

// Filter decodes every record matching keep, in insertion order.
func (t Table[T]) Filter(v View, keep func(T) bool) ([]T, error) {
	entries := v.Scan(t.Collection)
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		value, err := t.decode(e.Record)
		if err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", t.Entity, e.ID, err)
		}
		if keep == nil || keep(value) {
			out = append(out, value)
		}
	}
	return out, nil
}

// Insert stores a new record; duplicates fail with ErrAlreadyExists.
func (t Table[T]) Insert(tx Tx, id string, value T) error {
	rec, err := encodeRecord(value)
	if err != nil {
		return err
	}
	if err := tx.Insert(t.Collection, id, rec); err != nil {
		var dup ErrAlreadyExists
		if errors.As(err, &dup) {
			return ErrAlreadyExists{Entity: t.Entity, ID: id}
		}
		return err
	}
	return nil
}

// Put writes value over the existing record, keeping fields T does not model.
func (t Table[T]) Put(tx Tx, id string, value T) error {
	rec, err := encodeRecord(value)
	if err != nil {
		return err
	}
	if existing, err := tx.Get(t.Collection, id); err == nil {
		for k, v := range rec {
			existing[k] = v
		}
		rec = existing
	}
	return tx.Put(t.Collection, id, rec)
}

// Delete removes the record and returns its last value.
func (t Table[T]) Delete(tx Tx, id string) (T, error) {
	var zero T
	rec, err := tx.Delete(t.Collection, id)
	if err != nil {
		var nf ErrNotFound
		if errors.As(err, &nf) {
			return zero, ErrNotFound{Entity: t.Entity, ID: id}
		}
		return zero, err
	}
	return t.decode(rec)
}

// Mint returns the next id for the collection.
func (t Table[T]) Mint(tx Tx) (string, error) {
	return tx.MintID(t.Collection)
}

func (t Table[T]) decode(rec Record) (T, error) {
	var value T
	raw, err := json.Marshal(rec)
	if err != nil {
		return value, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, err
	}
	return value, nil
}

func encodeRecord(value any) (Record, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("entity must encode to a JSON object: %w", err)
	}
	return rec, nil
}
