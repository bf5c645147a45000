package rangle

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/erauner12/rangle-api/internal/syncx"
)

// DefaultPath is the item field holding the timestamp when none is configured
const DefaultPath = "modified"

// Item is a single server-side record, usually a decoded JSON object
type Item map[string]any

// Items is the server-side collection keyed by item id
type Items map[string]Item

// fieldPath is a validated path of one or two segments. Splitting happens once
// per call so the per-item loops only do map lookups.
type fieldPath struct {
	head   string
	tail   string
	nested bool
}

func compilePath(path string) (fieldPath, error) {
	parts := strings.Split(path, ".")
	if len(parts) > 2 {
		return fieldPath{}, &UnsupportedPathError{Path: path}
	}
	for _, p := range parts {
		if p == "" {
			return fieldPath{}, &UnsupportedPathError{Path: path, EmptySegment: true}
		}
	}
	if len(parts) == 1 {
		return fieldPath{head: parts[0]}, nil
	}
	return fieldPath{head: parts[0], tail: parts[1], nested: true}, nil
}

// ValidatePath reports whether path can be used to read timestamps
func ValidatePath(path string) error {
	_, err := compilePath(path)
	return err
}

// Timestamp resolves path against item. The bool is false when the item has
// no usable timestamp at that path.
func Timestamp(item Item, path string) (int64, bool, error) {
	p, err := compilePath(path)
	if err != nil {
		return 0, false, err
	}
	ts, ok := p.timestamp(item)
	return ts, ok, nil
}

// Stamp builds an item that carries ts at path
func Stamp(path string, ts int64) (Item, error) {
	p, err := compilePath(path)
	if err != nil {
		return nil, err
	}
	if !p.nested {
		return Item{p.head: ts}, nil
	}
	return Item{p.head: map[string]any{p.tail: ts}}, nil
}

func (p fieldPath) timestamp(item Item) (int64, bool) {
	if !p.nested {
		return toMs(item[p.head])
	}
	inner, ok := syncx.GetMap(item, p.head)
	if !ok {
		return 0, false
	}
	return toMs(inner[p.tail])
}

// toMs converts the numeric shapes produced by Go literals, encoding/json and
// database drivers. Fractional floats are rejected.
func toMs(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case uint32:
		return int64(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t != math.Trunc(t) || math.Abs(t) > 1<<53 {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		return syncx.ParseTimeToMs(t)
	}
	return 0, false
}
