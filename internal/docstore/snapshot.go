package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/partsdesk/partsdesk/internal/db/models"
)

// Snapshot is the state of one document at a point in time
type Snapshot struct {
	Path      string
	Exists    bool
	Version   uint64
	Data      json.RawMessage
	UpdatedAt time.Time
}

// ID returns the last path segment, the document key inside its collection
func (s Snapshot) ID() string {
	return s.Path[strings.LastIndex(s.Path, "/")+1:]
}

// DataTo decodes the document body into v
func (s Snapshot) DataTo(v interface{}) error {
	if !s.Exists {
		return fmt.Errorf("%w: %s", ErrNotFound, s.Path)
	}
	return json.Unmarshal(s.Data, v)
}

func snapshotOf(doc *models.Document) Snapshot {
	return Snapshot{
		Path:      doc.Path,
		Exists:    true,
		Version:   doc.Version,
		Data:      doc.Data,
		UpdatedAt: doc.UpdatedAt,
	}
}

// Path joins segments into a document or collection path
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

// fieldMap encodes v as a JSON object
func fieldMap(v interface{}) (map[string]interface{}, error) {
	if m, ok := v.(map[string]interface{}); ok {
		return m, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("document value must encode to a JSON object: %w", err)
	}
	return fields, nil
}

// mergeFields overlays src onto dst, recursing into nested objects
func mergeFields(dst, src map[string]interface{}) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]interface{})
		dstMap, dstIsMap := dst[k].(map[string]interface{})
		if srcIsMap && dstIsMap {
			mergeFields(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
}

// setField assigns value at a dotted field path, creating intermediate objects
func setField(fields map[string]interface{}, dotted string, value interface{}) error {
	keys := strings.Split(dotted, ".")
	current := fields
	for _, key := range keys[:len(keys)-1] {
		if key == "" {
			return fmt.Errorf("invalid field path %q", dotted)
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[key] = next
		}
		current = next
	}
	last := keys[len(keys)-1]
	if last == "" {
		return fmt.Errorf("invalid field path %q", dotted)
	}
	current[last] = value
	return nil
}
