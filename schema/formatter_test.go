package schema

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"
)

var testStatic = Static{
	Environment:    "qa",
	LoggerName:     "test_logger",
	ServiceName:    "test_service",
	ServiceVersion: "1.0.0",
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v\n%s", err, data)
	}
	return payload
}

func TestFormatFullPayload(t *testing.T) {
	f := NewFormatter(testStatic, nil, nil)
	rec := Record{
		Time:    time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC),
		Level:   LevelError,
		Message: "payment failed",
		Extras:  map[string]any{"order_id": "o-42"},
	}

	payload := decode(t, f.Format(rec))

	expected := map[string]any{
		"tag":             "ows1",
		"timestamp":       "2026-03-14T09:26:53.589Z",
		"level":           "ERROR",
		"level_code":      float64(400),
		"message":         "payment failed",
		"logger_name":     "test_logger",
		"service_name":    "test_service",
		"service_version": "1.0.0",
		"environment":     "qa",
		"order_id":        "o-42",
	}
	for key, want := range expected {
		if got := payload[key]; got != want {
			t.Errorf("payload[%q] = %v, want %v", key, got, want)
		}
	}
	if len(payload) != len(expected) {
		t.Errorf("payload has %d keys, want %d: %v", len(payload), len(expected), payload)
	}
}

func TestFormatTimestampIsUTCMilliseconds(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	f := NewFormatter(testStatic, nil, nil)
	rec := Record{
		Time:  time.Date(2026, 1, 2, 15, 4, 5, 6_000_000, loc),
		Level: LevelInfo,
	}

	payload := decode(t, f.Format(rec))

	ts, _ := payload["timestamp"].(string)
	if ts != "2026-01-02T10:04:05.006Z" {
		t.Errorf("timestamp = %q, want 2026-01-02T10:04:05.006Z", ts)
	}

	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)
	if !pattern.MatchString(ts) {
		t.Errorf("timestamp %q does not match ISO-8601 UTC millisecond layout", ts)
	}
}

func TestFormatEmptyMessage(t *testing.T) {
	f := NewFormatter(testStatic, nil, nil)
	payload := decode(t, f.Format(Record{Time: time.Now(), Level: LevelInfo}))

	if msg, ok := payload["message"]; !ok || msg != "" {
		t.Errorf("message = %v, want empty string present", msg)
	}
	if _, ok := payload["meta"]; ok {
		t.Error("meta should be omitted when no caller info is set")
	}
}

func TestFormatCallerMeta(t *testing.T) {
	f := NewFormatter(testStatic, nil, nil)
	rec := Record{
		Time:   time.Now(),
		Level:  LevelInfo,
		Caller: &Caller{FileName: "handlers.go", FunctionName: "pkg.Handle", Line: 42},
	}

	payload := decode(t, f.Format(rec))

	meta, ok := payload["meta"].(map[string]any)
	if !ok {
		t.Fatalf("meta missing or wrong type: %v", payload["meta"])
	}
	if meta["file_name"] != "handlers.go" || meta["function_name"] != "pkg.Handle" || meta["line"] != float64(42) {
		t.Errorf("unexpected meta: %v", meta)
	}
}

func TestFormatReservedKeyCollision(t *testing.T) {
	var dropped []string
	f := NewFormatter(testStatic, func(key string) { dropped = append(dropped, key) }, nil)
	rec := Record{
		Time:    time.Now(),
		Level:   LevelInfo,
		Message: "hello",
		Extras: map[string]any{
			"service_name": "imposter",
			"order_id":     "o-1",
		},
	}

	payload := decode(t, f.Format(rec))

	if payload["service_name"] != "test_service" {
		t.Errorf("reserved key overridden: service_name = %v", payload["service_name"])
	}
	if payload["order_id"] != "o-1" {
		t.Errorf("legitimate extra lost: order_id = %v", payload["order_id"])
	}
	if len(dropped) != 1 || dropped[0] != "service_name" {
		t.Errorf("collision callback got %v, want [service_name]", dropped)
	}
}

func TestFormatUnserializableExtraDegrades(t *testing.T) {
	var degraded []*SerializationError
	f := NewFormatter(testStatic, nil, func(serr *SerializationError) { degraded = append(degraded, serr) })
	rec := Record{
		Time:    time.Now(),
		Level:   LevelWarning,
		Message: "partial",
		Extras: map[string]any{
			"bad":  make(chan int),
			"good": "value",
		},
	}

	payload := decode(t, f.Format(rec))

	if payload["good"] != "value" {
		t.Errorf("intact extra lost: good = %v", payload["good"])
	}
	marker, _ := payload["bad"].(string)
	if !strings.HasPrefix(marker, "!ERROR(") {
		t.Errorf("bad extra = %v, want error marker", payload["bad"])
	}
	if payload["message"] != "partial" || payload["level"] != "WARNING" {
		t.Error("schema fields damaged by degradation")
	}
	if len(degraded) != 1 || degraded[0].Key != "bad" {
		t.Errorf("degrade callback got %v, want one error for key bad", degraded)
	}
}

func TestFormatCyclicExtraDoesNotHang(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	f := NewFormatter(testStatic, nil, nil)
	rec := Record{
		Time:    time.Now(),
		Level:   LevelError,
		Message: "cycle",
		Extras:  map[string]any{"loop": cyclic},
	}

	done := make(chan []byte, 1)
	go func() { done <- f.Format(rec) }()

	select {
	case data := <-done:
		payload := decode(t, data)
		if _, ok := payload["loop"].(string); !ok {
			t.Errorf("cyclic extra not replaced with marker: %v", payload["loop"])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Format hung on cyclic extra")
	}
}

func TestReserved(t *testing.T) {
	for _, key := range []string{"tag", "timestamp", "level", "level_code", "message", "logger_name", "service_name", "service_version", "environment", "meta"} {
		if !Reserved(key) {
			t.Errorf("Reserved(%q) = false, want true", key)
		}
	}
	if Reserved("correlation_id") {
		t.Error("correlation_id must stay overridable by callers")
	}
	if Reserved("order_id") {
		t.Error("Reserved(order_id) = true, want false")
	}
}
