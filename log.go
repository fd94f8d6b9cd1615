package examprep

import "log"

var verboseMode bool

// SetVerbose toggles debug logging for the whole package
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// VerboseLog logs only when verbose mode is enabled. Recovered pipeline
// failures always log through the standard logger instead; this is for
// per-item noise.
func VerboseLog(format string, v ...interface{}) {
	if verboseMode {
		log.Printf(format, v...)
	}
}
