package interfaces

import "time"

// EodSummarizer aggregates a day's trade log into a CSV report.
type EodSummarizer interface {
	// SummarizeDay writes the CSV summary for the given UTC date and returns
	// its path. An empty path with a nil error means there were no trades.
	SummarizeDay(t time.Time) (csvPath string, err error)

	// SummarizeToday summarizes the current UTC date.
	SummarizeToday() (csvPath string, err error)

	// ShouldRunNow reports whether the summary for today is due: the US
	// session has closed and the file does not exist yet.
	ShouldRunNow() (shouldRun bool, csvPath string)
}
