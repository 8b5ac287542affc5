// nolint: sloglint
package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// DefaultLevel is the default minimum reporting level for the logger
const DefaultLevel = slog.LevelDebug

var (
	// minimum reporting level for the logger
	lvl = new(slog.LevelVar)

	// top-level logger
	logger *slog.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: levelAttrReplacer,
	}))
)

func init() {
	lvl.Set(DefaultLevel)
	slog.SetDefault(logger)
}

// SetLevel sets the minimum reporting level for the logger
func SetLevel(level slog.Level) (old slog.Level) {
	old = lvl.Level()
	lvl.Set(level)
	return old
}

// With returns a Logger that includes the given attributes in each output operation.
func With(args ...any) *slog.Logger {
	return logger.With(args...)
}

// Debug logs at [LevelDebug].
func Debug(msg string, args ...any) {
	log(context.Background(), logger, slog.LevelDebug, msg, args...)
}

// Info logs at [LevelInfo].
func Info(msg string, args ...any) {
	log(context.Background(), logger, slog.LevelInfo, msg, args...)
}

// Warn logs at [LevelWarn].
func Warn(msg string, args ...any) {
	log(context.Background(), logger, slog.LevelWarn, msg, args...)
}

// Error logs at [LevelError].
func Error(msg string, args ...any) {
	log(context.Background(), logger, slog.LevelError, msg, args...)
}

// Panic logs at [LevelPanic] and then panics.
func Panic(msg string, args ...any) {
	log(context.Background(), logger, LevelPanic, msg, args...)
	panic(msg)
}

// Fatal logs at [LevelFatal] followed by a call to [os.Exit](1).
func Fatal(msg string, args ...any) {
	log(context.Background(), logger, LevelFatal, msg, args...)
	os.Exit(1)
}

// Config is the logger configuration.
type Config struct {
	// Output is the logger output format.
	// Possible values:
	//  - Text (default)
	//  - JSON
	Output string `mapstructure:"output" env:"OUTPUT" envDefault:"text"`

	// Debug is enabled logger level debug. (default: false)
	Debug bool `mapstructure:"debug" env:"DEBUG" envDefault:"false"`
}

// Init initializes global logger and slog logger with given configuration.
func Init(cfg Config) error {
	var (
		handler slog.Handler
		options = &slog.HandlerOptions{
			AddSource:   false,
			Level:       lvl,
			ReplaceAttr: attrReplacerChain(levelAttrReplacer, errorAttrReplacer),
		}
	)

	lvl.Set(slog.LevelInfo)
	if cfg.Debug {
		lvl.Set(slog.LevelDebug)
		options.AddSource = true
	}

	switch strings.ToLower(cfg.Output) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, options)
	default:
		handler = slog.NewTextHandler(os.Stdout, options)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
	return nil
}

// attrReplacerChain returns a function that applies a chain of replacers to an attribute.
func attrReplacerChain(replacers ...func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, attr slog.Attr) slog.Attr {
		for _, replacer := range replacers {
			attr = replacer(groups, attr)
		}
		return attr
	}
}

// log is the low-level logging method for methods that take ...any.
// It must always be called directly by an exported logging method
// or function, because it uses a fixed call depth to obtain the pc.
func log(ctx context.Context, l *slog.Logger, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}

	if !l.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	// skip [runtime.Callers, this function, this function's caller]
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}
