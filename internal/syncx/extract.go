package syncx

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Extracted contains parsed sync metadata from a pushed collection item
type Extracted struct {
	UID         uuid.UUID
	UpdatedAtMs int64
	DeletedAtMs *int64
	Version     int
}

// GetString safely extracts a string value from a map
func GetString(m map[string]any, k string) (string, bool) {
	if v, ok := m[k]; ok {
		if s, ok2 := v.(string); ok2 {
			return s, true
		}
	}
	return "", false
}

// GetMap safely extracts a nested JSON object from a map
func GetMap(m map[string]any, k string) (map[string]any, bool) {
	mm, ok := m[k].(map[string]any)
	return mm, ok
}

// ParseUUID parses a UUID string
func ParseUUID(s string) (uuid.UUID, bool) {
	if s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	return id, err == nil
}

// ParseTimeToMs converts various time formats to Unix milliseconds
// Accepts: RFC3339, numeric milliseconds (as string), empty (returns 0)
func ParseTimeToMs(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}

	// Try RFC3339 first
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().UnixMilli(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().UnixMilli(), true
	}

	// Try numeric milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, true
	}

	return 0, false
}

// TimestampFields are the item fields read for the update time, in order of preference
var TimestampFields = []string{"updatedTs", "updatedAt", "updateTime", "modified"}

var (
	errMissingUID       = errors.New("missing or invalid uid")
	errMissingTimestamp = errors.New("missing or invalid timestamp")
)

// updatedMs reads the first usable timestamp field. Values may be RFC3339
// strings, numeric strings or JSON numbers holding Unix milliseconds.
func updatedMs(item map[string]any) (int64, bool) {
	for _, k := range TimestampFields {
		switch v := item[k].(type) {
		case string:
			if ms, ok := ParseTimeToMs(v); ok {
				return ms, true
			}
		case float64:
			if v > 0 && v == float64(int64(v)) {
				return int64(v), true
			}
		}
	}
	return 0, false
}

// ExtractCommon parses the sync metadata every pushed item must carry:
// a UUID "uid" and an update timestamp. The optional "sync" object holds
// version, isDeleted and deletedAt.
func ExtractCommon(item map[string]any) (Extracted, error) {
	return ExtractWithTime(item, 0, false)
}

// ExtractWithTime is ExtractCommon with an update time the caller already
// resolved. When ok is false the TimestampFields are read instead.
// On a timestamp error the returned Extracted still carries the UID.
func ExtractWithTime(item map[string]any, updMs int64, ok bool) (Extracted, error) {
	var out Extracted

	uidStr, _ := GetString(item, "uid")
	id, valid := ParseUUID(uidStr)
	if !valid {
		return out, errMissingUID
	}
	out.UID = id

	if !ok {
		updMs, ok = updatedMs(item)
	}
	if !ok {
		return out, errMissingTimestamp
	}
	out.UpdatedAtMs = updMs

	if sync, ok := GetMap(item, "sync"); ok {
		if v, ok := sync["version"].(float64); ok && v > 0 {
			out.Version = int(v)
		}

		if del, _ := sync["isDeleted"].(bool); del {
			// deletedAt falls back to the update time
			ms := updMs
			if ds, ok := GetString(sync, "deletedAt"); ok {
				if parsed, ok := ParseTimeToMs(ds); ok {
					ms = parsed
				}
			}
			out.DeletedAtMs = &ms
		}
	}

	if out.Version == 0 {
		out.Version = 1
	}

	return out, nil
}
