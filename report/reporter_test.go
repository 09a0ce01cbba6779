package report

import (
	"errors"
	"testing"
)

func TestAnyErrors(t *testing.T) {
	// The silent level keeps the display path quiet; errors must still be
	// recorded so the driver can detect a failed compilation.
	InitReporter(LogLevelSilent)

	if AnyErrors() {
		t.Fatal("fresh reporter already has errors")
	}

	ReportWarning("test.cir", "something looks off")
	if AnyErrors() {
		t.Error("a warning set the error flag")
	}

	ReportError("test.cir", errors.New("bad instruction"))
	if !AnyErrors() {
		t.Error("a reported error was not recorded at the silent level")
	}

	// Re-initialization starts a new compilation with a clean slate.
	InitReporter(LogLevelSilent)
	if AnyErrors() {
		t.Error("re-initialization did not clear the error flag")
	}
}

func TestLogLevelFromName(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"silent", LogLevelSilent},
		{"error", LogLevelError},
		{"warn", LogLevelWarn},
		{"verbose", LogLevelVerbose},
		{"bogus", LogLevelVerbose},
	}

	for _, c := range cases {
		if got := LogLevelFromName(c.name); got != c.want {
			t.Errorf("LogLevelFromName(%q) = %d, want %d", c.name, got, c.want)
		}
	}
}
