// Package transcripts persists run transcripts to blob storage under
// "runs/<domain>/<interface>/<run_id>.json".
package transcripts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"toolcore/internal/blob"
	"toolcore/internal/runner"
)

const (
	rootPrefix  = "runs/"
	contentType = "application/json"
)

// Exporter writes transcripts to a blob store. It implements runner.TranscriptSink.
type Exporter struct {
	store blob.Store
}

// NewExporter constructs an exporter over store.
func NewExporter(store blob.Store) *Exporter {
	return &Exporter{store: store}
}

// Key returns the blob key of a transcript.
func Key(domainName, iface, runID string) string {
	return rootPrefix + domainName + "/" + iface + "/" + runID + ".json"
}

// Save implements runner.TranscriptSink. Run ids are unique so an existing key
// is an error.
func (e *Exporter) Save(ctx context.Context, t runner.Transcript) error {
	if t.RunID == "" {
		return fmt.Errorf("transcript without run id")
	}
	body, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript %s: %w", t.RunID, err)
	}
	meta := map[string]string{
		"domain":    t.Domain,
		"interface": t.Interface,
		"reward":    strconv.FormatFloat(t.Reward, 'f', -1, 64),
	}
	key := Key(t.Domain, t.Interface, t.RunID)
	if _, err := e.store.Put(ctx, key, bytes.NewReader(body), blob.PutOptions{ContentType: contentType, Metadata: meta}); err != nil {
		return fmt.Errorf("store transcript %s: %w", key, err)
	}
	return nil
}

// Get loads a stored transcript.
func (e *Exporter) Get(ctx context.Context, domainName, iface, runID string) (runner.Transcript, error) {
	key := Key(domainName, iface, runID)
	_, rc, err := e.store.Get(ctx, key)
	if err != nil {
		return runner.Transcript{}, err
	}
	defer rc.Close()
	var t runner.Transcript
	if err := json.NewDecoder(rc).Decode(&t); err != nil {
		return runner.Transcript{}, fmt.Errorf("decode transcript %s: %w", key, err)
	}
	return t, nil
}

// List returns the run ids stored for a domain and, when iface is not empty,
// one of its interfaces. Ids are ordered by key.
func (e *Exporter) List(ctx context.Context, domainName, iface string) ([]string, error) {
	prefix := rootPrefix + domainName + "/"
	if iface != "" {
		prefix += iface + "/"
	}
	infos, err := e.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		name := info.Key[strings.LastIndex(info.Key, "/")+1:]
		if id, ok := strings.CutSuffix(name, ".json"); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
