package report

import (
	"fmt"
	"os"
	"sync"
)

// Reporter is responsible for reporting errors, warnings, and other kinds of
// messages to the user during compilation.  The reporter respects the set log
// level and is synchronized: its methods can be safely called from multiple
// goroutines.
type Reporter struct {
	// The mutex used to synchronize report calls.
	m *sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// Indicates whether or not an error has been detected.
	isErr bool
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays warnings and errors to the user.
	LogLevelVerbose        // Displays all compilation messages (default).
)

// rep is the global reporter instance.
var rep = &Reporter{m: &sync.Mutex{}, logLevel: LogLevelVerbose}

// InitReporter initializes the global reporter to the given log level.
func InitReporter(logLevel int) {
	rep = &Reporter{
		m:        &sync.Mutex{},
		logLevel: logLevel,
	}
}

// LogLevelFromName converts a log level name as given on the command line
// into its enumerated value.  Unknown names map to the verbose level.
func LogLevelFromName(name string) int {
	switch name {
	case "silent":
		return LogLevelSilent
	case "error":
		return LogLevelError
	case "warn":
		return LogLevelWarn
	default:
		return LogLevelVerbose
	}
}

// -----------------------------------------------------------------------------

// ReportFatal reports a fatal but expected error: one that should stop the
// compiler immediately but that generally results from invalid configuration
// of some form (missing tools, unreadable input, bad profile).  Internal
// invariant violations go through FatalError instead.
func ReportFatal(message string, args ...interface{}) {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayFatal(fmt.Sprintf(message, args...))
	}

	os.Exit(1)
}

// ReportError reports a non-fatal compilation error located in the given
// source file.
func ReportError(path string, err error) {
	rep.m.Lock()
	defer rep.m.Unlock()

	// The error is recorded even when the log level suppresses its display
	// so that AnyErrors still reflects the compilation outcome.
	rep.isErr = true

	if rep.logLevel >= LogLevelError {
		displayError(path, err)
	}
}

// ReportWarning reports a compilation warning located in the given source
// file.
func ReportWarning(path, message string, args ...interface{}) {
	if rep.logLevel >= LogLevelWarn {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayWarning(path, fmt.Sprintf(message, args...))
	}
}

// ReportInfo reports a purely informational message.  These only display at
// the verbose log level.
func ReportInfo(tag, message string, args ...interface{}) {
	if rep.logLevel == LogLevelVerbose {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayInfo(tag, fmt.Sprintf(message, args...))
	}
}

// AnyErrors returns whether or not any errors were detected.
func AnyErrors() bool {
	rep.m.Lock()
	defer rep.m.Unlock()

	return rep.isErr
}

// -----------------------------------------------------------------------------

// CatchFatal converts a panic escaping a compiler phase into the fatal error
// path: the installed fatal error handler runs and the process aborts.  This
// is the boundary where "should never happen" conditions inside passes and
// lowering become a single diagnostic line instead of a raw stack trace.
// NB: This function must ALWAYS be deferred.
func CatchFatal(phase string) {
	if x := recover(); x != nil {
		FatalErrorf("%s: %v", phase, x)
	}
}
