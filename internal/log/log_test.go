package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSetLevelString(t *testing.T) {
	defer SetLevel(log.InfoLevel)

	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if Logger.GetLevel() != log.DebugLevel {
		t.Errorf("expected debug level, got %v", Logger.GetLevel())
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestCloseError(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	CloseError("db", nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output for nil error, got %q", buf.String())
	}

	CloseError("db", errors.New("locked"))
	if !strings.Contains(buf.String(), "locked") || !strings.Contains(buf.String(), "db") {
		t.Errorf("expected resource and error in output, got %q", buf.String())
	}
}
