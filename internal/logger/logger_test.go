package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("bad log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestWithComponent(t *testing.T) {
	t.Setenv("ENV", "")
	var buf bytes.Buffer
	InitTo(&buf, "info", false)
	t.Cleanup(func() { InitTo(&bytes.Buffer{}, "info", false) })

	log := WithComponent("alert_sweep")
	log.Info().Int("created", 2).Msg("sweep finished")

	entry := decodeLine(t, &buf)
	if entry["component"] != "alert_sweep" || entry["service"] != "sfm" {
		t.Errorf("entry = %v", entry)
	}
	if entry["message"] != "sweep finished" || entry["created"] != float64(2) {
		t.Errorf("entry = %v", entry)
	}
}

func TestWithRequestID(t *testing.T) {
	t.Setenv("ENV", "")
	var buf bytes.Buffer
	InitTo(&buf, "warn", false)
	t.Cleanup(func() { InitTo(&bytes.Buffer{}, "info", false) })

	log := WithRequestID("req-42")
	log.Info().Msg("below level")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}

	log.Error().Msg("request failed")
	entry := decodeLine(t, &buf)
	if entry["request_id"] != "req-42" || entry["level"] != "error" {
		t.Errorf("entry = %v", entry)
	}
}
