package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		" WARN ":  logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "info", "json")
	logger.WithField("batch", "b-1").Info("import finished")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("expected json output: %v (%s)", err, buf.String())
	}
	if payload["batch"] != "b-1" || payload["msg"] != "import finished" {
		t.Fatalf("unexpected payload %v", payload)
	}
}
