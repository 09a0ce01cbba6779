package report

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// FatalErrorHandler is a callback invoked when the compiler detects an
// internal invariant violation it cannot recover from.  The reason string is
// human-readable.  Handlers do not return control to the error site: after
// the handler runs, the process is terminated abnormally.
type FatalErrorHandler func(reason string)

// fatalSlot is the process-wide fatal handler slot.  At most one handler is
// active at a time.
type fatalSlot struct {
	m       sync.Mutex
	handler FatalErrorHandler

	// out is the stream the default handler writes to and abort is the
	// termination primitive.  Both exist as fields so tests can intercept
	// them; production code never touches them.
	out   io.Writer
	abort func()
}

var slot = fatalSlot{
	out: os.Stderr,
	abort: func() {
		// Mirror the exit status of an aborted process (128 + SIGABRT) so a
		// fatal error is distinguishable from an ordinary failed exit.
		os.Exit(134)
	},
}

// defaultFatalHandler writes the failure reason to standard error.  The
// message format is load-bearing: external tooling greps for it.
func defaultFatalHandler(reason string) {
	fmt.Fprintf(slot.out, "LLVM FATAL ERROR: %s\n", reason)
}

// InstallFatalErrorHandler removes any currently installed fatal error
// handler and installs the default one.  Calling it multiple times is safe
// and equivalent to calling it once.
func InstallFatalErrorHandler() {
	SetFatalErrorHandler(defaultFatalHandler)
}

// SetFatalErrorHandler removes any currently installed fatal error handler
// and installs h in its place.
func SetFatalErrorHandler(h FatalErrorHandler) {
	slot.m.Lock()
	defer slot.m.Unlock()

	slot.handler = h
}

// RemoveFatalErrorHandler removes the currently installed fatal error
// handler.  It is safe to call even if no handler is installed.
func RemoveFatalErrorHandler() {
	slot.m.Lock()
	defer slot.m.Unlock()

	slot.handler = nil
}

// FatalError reports an unrecoverable internal error: it invokes the
// installed fatal error handler (or the default one if none is installed)
// and then terminates the process abnormally.  It never returns: there is no
// retry, no recovery, and no structured error object past this point.
func FatalError(reason string) {
	slot.m.Lock()
	handler := slot.handler
	abort := slot.abort
	slot.m.Unlock()

	if handler == nil {
		handler = defaultFatalHandler
	}

	handler(reason)
	abort()
}

// FatalErrorf is FatalError with formatting.
func FatalErrorf(format string, args ...interface{}) {
	FatalError(fmt.Sprintf(format, args...))
}
