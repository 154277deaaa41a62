package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// Tag identifies the schema version on every payload.
const Tag = "ows1"

// timestampLayout is ISO-8601 with millisecond precision. Records are
// always converted to UTC before formatting.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Reserved keys of the OWS1 payload. Caller-supplied extras never override
// these; a colliding extra is dropped.
var reservedKeys = map[string]bool{
	"tag":             true,
	"timestamp":       true,
	"level":           true,
	"level_code":      true,
	"message":         true,
	"logger_name":     true,
	"service_name":    true,
	"service_version": true,
	"environment":     true,
	"meta":            true,
}

// Reserved reports whether key is a reserved OWS1 payload key.
func Reserved(key string) bool {
	return reservedKeys[key]
}

// Static holds the process-wide fields stamped onto every payload.
type Static struct {
	Environment    string
	LoggerName     string
	ServiceName    string
	ServiceVersion string
}

// Caller describes the code location a record was emitted from. It is
// optional and serialized under the meta key.
type Caller struct {
	FileName     string `json:"file_name"`
	FunctionName string `json:"function_name"`
	Line         int    `json:"line"`
}

// Record is one log event. It is built per call and discarded after
// formatting.
type Record struct {
	Time    time.Time
	Level   Level
	Message string
	Caller  *Caller
	// Extras is the merged dynamic field set (adapter bindings plus
	// call-scoped extras, already collapsed by precedence).
	Extras map[string]any
}

// SerializationError reports an extra value that could not be encoded as
// JSON. The formatter recovers from it internally; it never reaches a
// log-call site.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("extra field %q is not JSON-serializable: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// CollisionFunc is notified when a caller extra collides with a reserved
// payload key and is dropped.
type CollisionFunc func(key string)

// DegradeFunc is notified when an extra value had to be replaced because it
// could not be serialized.
type DegradeFunc func(serr *SerializationError)

// Formatter builds OWS1 JSON payloads from records.
type Formatter struct {
	static      Static
	onCollision CollisionFunc
	onDegrade   DegradeFunc
}

// NewFormatter creates a Formatter for the given static fields. Either
// callback may be nil.
func NewFormatter(static Static, onCollision CollisionFunc, onDegrade DegradeFunc) *Formatter {
	return &Formatter{
		static:      static,
		onCollision: onCollision,
		onDegrade:   onDegrade,
	}
}

// Format renders a record as an OWS1 JSON payload. It never fails on caller
// input: extras that cannot be serialized are replaced with an error marker
// and extras colliding with reserved keys are dropped, both with a
// best-effort notification.
func (f *Formatter) Format(rec Record) []byte {
	payload := map[string]any{
		"tag":             Tag,
		"timestamp":       rec.Time.UTC().Format(timestampLayout),
		"level":           rec.Level.String(),
		"level_code":      rec.Level.Code(),
		"message":         rec.Message,
		"logger_name":     f.static.LoggerName,
		"service_name":    f.static.ServiceName,
		"service_version": f.static.ServiceVersion,
		"environment":     f.static.Environment,
	}
	if rec.Caller != nil {
		payload["meta"] = rec.Caller
	}

	for key, value := range rec.Extras {
		if Reserved(key) {
			if f.onCollision != nil {
				f.onCollision(key)
			}
			continue
		}
		payload[key] = f.sanitize(key, value)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// Every extra was individually vetted above, so this only
		// triggers on values whose Marshal succeeds standalone but
		// fails inside the full document. Degrade the whole record
		// rather than lose it.
		data = f.fallback(rec, err)
	}
	return data
}

// sanitize returns value if it is JSON-serializable, otherwise an error
// marker string carrying the value's type.
func (f *Formatter) sanitize(key string, value any) any {
	if _, err := json.Marshal(value); err != nil {
		serr := &SerializationError{Key: key, Err: err}
		if f.onDegrade != nil {
			f.onDegrade(serr)
		}
		return fmt.Sprintf("!ERROR(unserializable %T)", value)
	}
	return value
}

// fallback builds a minimal payload containing only the schema's own fields
// plus a marker describing the serialization failure.
func (f *Formatter) fallback(rec Record, cause error) []byte {
	if f.onDegrade != nil {
		f.onDegrade(&SerializationError{Key: "", Err: cause})
	}
	payload := map[string]any{
		"tag":                 Tag,
		"timestamp":           rec.Time.UTC().Format(timestampLayout),
		"level":               rec.Level.String(),
		"level_code":          rec.Level.Code(),
		"message":             rec.Message,
		"logger_name":         f.static.LoggerName,
		"service_name":        f.static.ServiceName,
		"service_version":     f.static.ServiceVersion,
		"environment":         f.static.Environment,
		"serialization_error": cause.Error(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		// Unreachable: the fallback payload contains only strings
		// and ints.
		return []byte(`{"tag":"ows1","serialization_error":"payload unserializable"}`)
	}
	return data
}
