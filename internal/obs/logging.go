package obs

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the structured logger the coordinator and its
// subcomponents log through. Grounded on zerolog, the structured
// logger used elsewhere in the retrieval pack for graph-based ANN
// indexes; the teacher itself carries no logging library, only ad hoc
// fmt.Errorf and a handful of fmt.Printf calls.
func NewLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the subsystem name, so
// log lines from the graph, buffer, and persistence layers are
// distinguishable without each one building its own logger.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
