package eodobs

import (
	"context"
	"time"

	"news-trading-bot/internal/interfaces"
	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/trace"
)

type observableEodSummarizer struct {
	summarizer interfaces.EodSummarizer
}

var _ interfaces.EodSummarizer = (*observableEodSummarizer)(nil)

func Wrap(summarizer interfaces.EodSummarizer) interfaces.EodSummarizer {
	return &observableEodSummarizer{
		summarizer: summarizer,
	}
}

func (oes *observableEodSummarizer) SummarizeDay(t time.Time) (string, error) {
	ctx := context.Background()
	ctx, span := trace.StartSpan(ctx, "eod.SummarizeDay")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting EOD summary generation",
		"date", t.UTC().Format("2006-01-02"),
	)

	csvPath, err := oes.summarizer.SummarizeDay(t)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "EOD summary generation failed", err,
			"date", t.UTC().Format("2006-01-02"),
		)
		return "", err
	}

	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No trades found for EOD summary",
			"date", t.UTC().Format("2006-01-02"),
		)
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "EOD summary generated",
		"date", t.UTC().Format("2006-01-02"),
		"csv_path", csvPath,
	)

	return csvPath, nil
}

func (oes *observableEodSummarizer) SummarizeToday() (string, error) {
	return oes.SummarizeDay(time.Now().UTC())
}

func (oes *observableEodSummarizer) ShouldRunNow() (bool, string) {
	ctx := context.Background()
	ctx, span := trace.StartSpan(ctx, "eod.ShouldRunNow")
	defer span.End()

	shouldRun, csvPath := oes.summarizer.ShouldRunNow()

	logger.DebugSkip(ctx, 1, "EOD check completed",
		"should_run", shouldRun,
		"csv_path", csvPath,
	)

	return shouldRun, csvPath
}
