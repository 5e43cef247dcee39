package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestComponentTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Component(logger, "engine").Info("ready")

	if !strings.Contains(buf.String(), "component=engine") {
		t.Errorf("log line = %q, want a component=engine attribute", buf.String())
	}
}
