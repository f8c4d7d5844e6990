package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"

	btrace "news-trading-bot/internal/trace"
)

var (
	// Global logger instance
	globalLogger *slog.Logger
	// Log level controlled by environment variable
	logLevel slog.Level
	// Whether detailed logging is enabled
	detailedLogging bool
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level           string // DEBUG, INFO, WARN, ERROR
	Format          string // json or text
	File            string // optional log file path; empty logs to stdout
	MaxSizeMB       int    // rotation threshold when File is set
	MaxBackups      int
	DetailedLogging bool // Enable detailed logs with caller source
}

// Init initializes the global logger from environment variables.
func Init() error {
	return InitWithConfig(LoadConfigFromEnv())
}

// LoadConfigFromEnv loads logging configuration from environment variables
func LoadConfigFromEnv() LogConfig {
	return LogConfig{
		Level:           getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format:          getEnvOrDefault("LOG_FORMAT", "json"),
		File:            os.Getenv("LOG_FILE"),
		MaxSizeMB:       20,
		MaxBackups:      5,
		DetailedLogging: getEnvOrDefault("LOG_DETAILED", "false") == "true",
	}
}

// InitWithConfig initializes the logger with specific configuration
func InitWithConfig(config LogConfig) error {
	logLevel = parseLogLevel(config.Level)
	detailedLogging = config.DetailedLogging

	// Caller source is attached manually in logWithTrace so the reported
	// location is the call site, not this package.
	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: false,
	}

	var out io.Writer = os.Stdout
	if config.File != "" {
		out = &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			Compress:   true,
		}
	}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	return nil
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getTraceAttrs extracts trace ID and span ID from context for logging
func getTraceAttrs(ctx context.Context) []any {
	traceID, spanID, ok := btrace.GetTraceFields(ctx)
	if !ok {
		return nil
	}
	return []any{"trace_id", traceID, "span_id", spanID}
}

// Debug logs a debug message
func Debug(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelDebug, msg, 2, args...)
}

// Info logs an info message
func Info(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, 2, args...)
}

// Warn logs a warning message
func Warn(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelWarn, msg, 2, args...)
}

// Error logs an error message
func Error(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelError, msg, 2, args...)
}

// ErrorWithErr logs an error message with an error object
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	allArgs := append([]any{"error", err}, args...)
	logWithTrace(ctx, slog.LevelError, msg, 2, allArgs...)
}

// Skip variants are used by the observability middlewares so the logged caller
// is the wrapped component rather than the middleware itself.

func DebugSkip(ctx context.Context, extraSkip int, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelDebug, msg, 2+extraSkip, args...)
}

func InfoSkip(ctx context.Context, extraSkip int, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, 2+extraSkip, args...)
}

func WarnSkip(ctx context.Context, extraSkip int, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelWarn, msg, 2+extraSkip, args...)
}

func ErrorWithErrSkip(ctx context.Context, extraSkip int, msg string, err error, args ...any) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	allArgs := append([]any{"error", err}, args...)
	logWithTrace(ctx, slog.LevelError, msg, 2+extraSkip, allArgs...)
}

// logWithTrace logs a message with trace ID and span ID if available.
// skip indicates how many stack frames to skip to get the actual caller.
func logWithTrace(ctx context.Context, level slog.Level, msg string, skip int, args ...any) {
	if globalLogger == nil {
		return
	}
	if traceAttrs := getTraceAttrs(ctx); traceAttrs != nil {
		args = append(traceAttrs, args...)
	}

	if detailedLogging {
		if pc, file, line, ok := runtime.Caller(skip); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				args = append(args, "source", slog.GroupValue(
					slog.String("function", fn.Name()),
					slog.String("file", file),
					slog.Int("line", line),
				))
			}
		}
	}

	globalLogger.Log(ctx, level, msg, args...)
}

// Decision logs a trading decision (always logged regardless of level)
func Decision(ctx context.Context, newsID, action, ticker string, confidence float64, reason string, fields ...any) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent("trading_decision", trace.WithAttributes(
			attribute.String("news_id", newsID),
			attribute.String("action", action),
			attribute.String("ticker", ticker),
			attribute.Float64("confidence", confidence),
			attribute.String("reason", reason),
		))
	}

	allFields := append([]any{
		"type", "DECISION",
		"news_id", newsID,
		"action", action,
		"ticker", ticker,
		"confidence", confidence,
		"reason", reason,
	}, fields...)
	logWithTrace(ctx, slog.LevelInfo, "Trading decision made", 2, allFields...)
}

// Trade logs an order lifecycle event (always logged regardless of level)
func Trade(ctx context.Context, event, ticker, side string, qty int, limitPrice float64, orderID string, fields ...any) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent("trade_event", trace.WithAttributes(
			attribute.String("event", event),
			attribute.String("ticker", ticker),
			attribute.String("side", side),
			attribute.Int("quantity", qty),
			attribute.Float64("limit_price", limitPrice),
			attribute.String("order_id", orderID),
		))
	}

	allFields := append([]any{
		"type", "TRADE",
		"event", event,
		"ticker", ticker,
		"side", side,
		"quantity", qty,
		"limit_price", limitPrice,
		"order_id", orderID,
	}, fields...)
	logWithTrace(ctx, slog.LevelInfo, "Trade event", 2, allFields...)
}

// IsDebugEnabled returns whether detailed logging is enabled
func IsDebugEnabled() bool {
	return detailedLogging
}
