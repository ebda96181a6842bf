package telemetry

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// InfoLogger is a sink for free-form log lines, mirroring the reference
// implementation's `Arc<dyn Fn(&str)>` alias.
type InfoLogger func(msg string)

// HeuristicState holds the last-seen values parsed from hyper-heuristic
// state log lines.
type HeuristicState struct {
	BestFitness float64 `json:"best_fitness"`
	Cycle       int     `json:"cycle"`
	Stagnation  int     `json:"stagnation"`
}

const heuristicStateMarker = "heuristic.state"

// TryParseAll attempts to parse line as a hyper-heuristic state log
// line: a line starting with the "heuristic.state" marker followed by
// space-separated key=value pairs. Returns the parsed state and true on
// a recognized line; false and the zero value otherwise, signalling the
// line should pass through unchanged.
func (HeuristicState) TryParseAll(line string) (HeuristicState, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, heuristicStateMarker) {
		return HeuristicState{}, false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, heuristicStateMarker))
	var state HeuristicState
	for _, field := range strings.Fields(rest) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		switch key {
		case "best_fitness":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				state.BestFitness = f
			}
		case "cycle":
			if n, err := strconv.Atoi(value); err == nil {
				state.Cycle = n
			}
		case "stagnation":
			if n, err := strconv.Atoi(value); err == nil {
				state.Stagnation = n
			}
		}
	}

	return state, true
}

// NewZerologInfoLogger wraps inner so that any line matching the
// hyper-heuristic state grammar updates shared's HeuristicState instead
// of being forwarded; every other line is passed to inner unchanged.
// This is the log-interceptor half of the telemetry proxy, matching
// create_info_logger_proxy from the reference implementation.
func NewZerologInfoLogger(shared *SharedExperimentData, inner InfoLogger) InfoLogger {
	return func(msg string) {
		if state, ok := (HeuristicState{}).TryParseAll(msg); ok {
			shared.withLock(func(e *ExperimentData) { e.HeuristicState = state })
			return
		}

		inner(msg)
	}
}

// ZerologWriter adapts InfoLogger to zerolog's io.Writer-based hook
// surface: every formatted log line zerolog produces is passed to Logger
// as zerolog formatted it, minus the trailing newline. zerolog's JSON
// lines begin with "{", not with the "heuristic.state" marker, so
// TryParseAll does not recognize them and heuristic-state messages
// logged through zerolog pass through uninterpreted.
type ZerologWriter struct {
	Logger InfoLogger
}

// Write implements io.Writer by forwarding the formatted line to the
// wrapped InfoLogger.
func (w ZerologWriter) Write(p []byte) (int, error) {
	w.Logger(strings.TrimRight(string(p), "\n"))

	return len(p), nil
}

// NewZerolog builds a zerolog.Logger whose output is routed through
// writer, so application code can keep using the teacher's structured
// logging calls (.Info().Msg(...), etc.) with every line reaching
// writer's InfoLogger (see ZerologWriter for how those lines look).
func NewZerolog(writer ZerologWriter) zerolog.Logger {
	return zerolog.New(writer).With().Timestamp().Logger()
}
