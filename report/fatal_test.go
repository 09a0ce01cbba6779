package report

import (
	"bytes"
	"testing"
)

// interceptFatal reroutes the fatal slot's output and abort primitive for the
// duration of a test.  It returns the captured output buffer and a counter of
// abort invocations.
func interceptFatal(t *testing.T) (*bytes.Buffer, *int) {
	t.Helper()

	buff := &bytes.Buffer{}
	aborts := 0

	slot.m.Lock()
	oldOut, oldAbort, oldHandler := slot.out, slot.abort, slot.handler
	slot.out = buff
	slot.abort = func() { aborts++ }
	slot.handler = nil
	slot.m.Unlock()

	t.Cleanup(func() {
		slot.m.Lock()
		slot.out, slot.abort, slot.handler = oldOut, oldAbort, oldHandler
		slot.m.Unlock()
	})

	return buff, &aborts
}

func TestFatalErrorFormat(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{"unable to legalize operation", "LLVM FATAL ERROR: unable to legalize operation\n"},
		{"", "LLVM FATAL ERROR: \n"},
		{"bad triple: %s", "LLVM FATAL ERROR: bad triple: %s\n"}, // reason is not a format string
	}

	for _, tt := range tests {
		buff, aborts := interceptFatal(t)

		InstallFatalErrorHandler()
		FatalError(tt.reason)

		if got := buff.String(); got != tt.want {
			t.Errorf("FatalError(%q): got %q, want %q", tt.reason, got, tt.want)
		}
		if *aborts != 1 {
			t.Errorf("FatalError(%q): got %d aborts, want 1", tt.reason, *aborts)
		}
	}
}

func TestInstallIsIdempotent(t *testing.T) {
	buff, aborts := interceptFatal(t)

	// Repeated installs must not stack handlers: exactly one line and one
	// abort per trigger.
	InstallFatalErrorHandler()
	InstallFatalErrorHandler()
	InstallFatalErrorHandler()

	FatalError("boom")

	if got := buff.String(); got != "LLVM FATAL ERROR: boom\n" {
		t.Errorf("got %q, want exactly one handler line", got)
	}
	if *aborts != 1 {
		t.Errorf("got %d aborts, want 1", *aborts)
	}
}

func TestRemoveThenTriggerUsesDefault(t *testing.T) {
	buff, aborts := interceptFatal(t)

	InstallFatalErrorHandler()
	RemoveFatalErrorHandler()
	RemoveFatalErrorHandler() // removal is idempotent

	FatalError("post-removal")

	// With no handler installed the default one still reports before the
	// abort: the failure reason is never silently lost.
	if got := buff.String(); got != "LLVM FATAL ERROR: post-removal\n" {
		t.Errorf("got %q", got)
	}
	if *aborts != 1 {
		t.Errorf("got %d aborts, want 1", *aborts)
	}
}

func TestSetCustomHandler(t *testing.T) {
	buff, aborts := interceptFatal(t)

	var captured string
	SetFatalErrorHandler(func(reason string) {
		captured = reason
	})

	FatalError("custom sink")

	if captured != "custom sink" {
		t.Errorf("custom handler got %q", captured)
	}
	if buff.Len() != 0 {
		t.Errorf("default handler ran alongside custom one: %q", buff.String())
	}
	if *aborts != 1 {
		t.Errorf("got %d aborts, want 1", *aborts)
	}
}

func TestCatchFatalRoutesPanics(t *testing.T) {
	buff, aborts := interceptFatal(t)
	InstallFatalErrorHandler()

	func() {
		defer CatchFatal("lowering")
		panic("operand type mismatch")
	}()

	if got := buff.String(); got != "LLVM FATAL ERROR: lowering: operand type mismatch\n" {
		t.Errorf("got %q", got)
	}
	if *aborts != 1 {
		t.Errorf("got %d aborts, want 1", *aborts)
	}
}
