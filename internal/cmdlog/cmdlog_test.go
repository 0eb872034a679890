package cmdlog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/huygnguyen04/at-everyone/internal/logging"
)

func TestRunLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	defer logging.SetOutput(nil)

	if err := Run("users", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if err := Run("show", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("error not propagated: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"users_ok"`) || !strings.Contains(out, `"show_error"`) {
		t.Fatalf("missing log lines: %s", out)
	}
}
