// Package trigger decides which source started a pipeline execution.
package trigger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Source identifies the origin of a pipeline run.
type Source string

const (
	// SourceLambda marks a run started by the pipeline-trigger Lambda.
	SourceLambda Source = "lambda"
	// SourceGitHub marks a run started by a source-control push.
	SourceGitHub Source = "github"
)

// DefaultTolerance is the window, in seconds, within which a stored trigger
// timestamp is attributed to the Lambda.
const DefaultTolerance float64 = 120

// Classify compares the stored trigger timestamp with now. A delta in
// [0, tolerance] means the Lambda fired the run; everything else, including
// a timestamp in the future, is attributed to a push.
func Classify(stored, tolerance float64, now time.Time) Source {
	delta := Seconds(now) - stored
	if delta >= 0 && delta <= tolerance {
		return SourceLambda
	}
	return SourceGitHub
}

// Seconds converts t to fractional Unix seconds.
func Seconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

// FormatTimestamp renders t the way trigger timestamps are stored.
func FormatTimestamp(t time.Time) string {
	return strconv.FormatFloat(Seconds(t), 'f', 6, 64)
}

// ParseTimestamp reads a stored trigger timestamp.
func ParseTimestamp(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing trigger timestamp %q: %w", s, err)
	}
	return v, nil
}

func (s Source) String() string { return string(s) }
