// Package dataset reads and writes domain datasets kept in blob storage as one
// JSON object per collection at "<domain>/<collection>.json". Each object maps
// record id to record; key order is kept as the collection's insertion order.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"toolcore/internal/blob"
	"toolcore/internal/infra/persistence/memory"
	"toolcore/pkg/domain"
)

const contentType = "application/json"

// Key returns the blob key holding a collection.
func Key(domainName string, collection domain.Collection) string {
	return domainName + "/" + string(collection) + ".json"
}

// Load reads every declared collection of a domain. Collections without a
// blob load empty.
func Load(ctx context.Context, store blob.Store, domainName string, specs []domain.CollectionSpec) (memory.Snapshot, error) {
	snap := make(memory.Snapshot, len(specs))
	for _, spec := range specs {
		key := Key(domainName, spec.Name)
		_, rc, err := store.Get(ctx, key)
		if errors.Is(err, blob.ErrNotFound) {
			snap[spec.Name] = []domain.Entry{}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		entries, err := Decode(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		snap[spec.Name] = entries
	}
	return snap, nil
}

// Save writes every collection of snap, replacing existing blobs.
func Save(ctx context.Context, store blob.Store, domainName string, snap memory.Snapshot) error {
	for collection, entries := range snap {
		body, err := Encode(entries)
		if err != nil {
			return fmt.Errorf("encode %s: %w", collection, err)
		}
		key := Key(domainName, collection)
		opts := blob.PutOptions{ContentType: contentType, Overwrite: true, Metadata: map[string]string{"domain": domainName}}
		if _, err := store.Put(ctx, key, bytes.NewReader(body), opts); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Decode reads a top-level id→record object, keeping key order. The key is
// carried on Entry.ID; records are returned as stored.
func Decode(r io.Reader) ([]domain.Entry, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object of records")
	}
	entries := []domain.Entry{}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		id, _ := tok.(string)
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate record id %q", id)
		}
		seen[id] = struct{}{}
		var rec domain.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		if rec == nil {
			return nil, fmt.Errorf("record %s: expected an object", id)
		}
		entries = append(entries, domain.Entry{ID: id, Record: rec})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Encode writes entries as an ordered id→record object.
func Encode(entries []domain.Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, e := range entries {
		key, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.MarshalIndent(e.Record, "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", e.ID, err)
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(entries)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
