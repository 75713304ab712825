package internal

import (
	"io"
	"log"
	"os"
)

// InitLogging routes the standard logger to stdout with microsecond
// timestamps. Quiet discards everything, for commands whose stdout is data.
func InitLogging(quiet bool) {
	var w io.Writer = os.Stdout
	if quiet {
		w = io.Discard
	}
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}
