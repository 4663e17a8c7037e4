package log

import (
	stdlog "log"
)

// Config declaratively describes a logger: level and output format.
type Config struct {
	Level  string `json:"level" yaml:"level"`   // debug|info|warn|error (default info)
	Format string `json:"format" yaml:"format"` // text|json (default text)
}

// ApplyConfig builds a Logger from a declarative Config.
func ApplyConfig(cfg *Config) (Logger, error) {
	level := InfoLevel
	if cfg.Level != "" {
		l, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}
	var formatter Formatter
	switch cfg.Format {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, errUnknownFormat(cfg.Format)
	}
	return NewLogger(
		WithLevel(level),
		WithFormatter(formatter),
		WithOutput(NewConsoleOutput()),
	), nil
}

type errUnknownFormat string

func (e errUnknownFormat) Error() string { return "log: unknown format " + string(e) }

// RedirectStdLog routes the standard library's global logger through l at
// info level. Libraries logging via the stdlib (Pebble, net/http) then share
// our format.
func RedirectStdLog(l Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(stdlogWriter{l})
}

type stdlogWriter struct{ l Logger }

func (w stdlogWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.l.Info(msg)
	return len(p), nil
}
