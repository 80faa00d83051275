package logbook

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// Config carries the state the writer and query engine share. It is built
// once at process start and passed by reference; there is no package-level
// mutable state.
type Config struct {
	Root     string           // directory holding daily and named log files
	Hostname string           // stamped on records when set
	Echo     io.Writer        // console echo target, nil disables echo
	Now      func() time.Time // defaults to time.Now
}

func (c *Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

type Writer struct {
	cfg       *Config
	echoColor bool
}

func NewWriter(cfg *Config) *Writer {
	echoColor := false
	if f, ok := cfg.Echo.(*os.File); ok {
		echoColor = isatty.IsTerminal(f.Fd())
	}
	return &Writer{cfg: cfg, echoColor: echoColor}
}

type WriteOptions struct {
	Level   Level
	Tags    []string
	Source  string
	LogName string // named log, no date rotation
	Dir     string // overrides the configured root
	Quiet   bool   // suppress console echo
}

// Write appends exactly one formatted line to the resolved log file,
// creating the directory and file as needed. Existing content is never
// truncated or reordered. Filesystem errors surface as *WriteError.
func (w *Writer) Write(msg string, opts WriteOptions) error {
	now := w.cfg.now()

	rec := Record{
		Timestamp: now,
		Level:     opts.Level,
		Tags:      opts.Tags,
		Source:    opts.Source,
		Host:      w.cfg.Hostname,
		Message:   msg,
	}
	line := FormatLine(rec)

	path := w.resolve(opts, now)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &WriteError{Op: "create log dir", Path: filepath.Dir(path), Err: err}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &WriteError{Op: "open log file", Path: path, Err: err}
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return &WriteError{Op: "append log line", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Op: "close log file", Path: path, Err: err}
	}

	if w.cfg.Echo != nil && !opts.Quiet {
		w.echo(rec)
	}
	return nil
}

// resolve picks the target file: explicit directory override when given,
// else the daily-rotation convention under the root, else the named log
// under the root.
func (w *Writer) resolve(opts WriteOptions, now time.Time) string {
	dir := opts.Dir
	if dir == "" {
		dir = w.cfg.Root
	}
	name := opts.LogName
	if name == "" {
		name = DailyLogName(now)
	}
	return filepath.Join(dir, name)
}

func (w *Writer) echo(rec Record) {
	line := FormatLine(rec)
	if w.echoColor {
		level := rec.Level
		if level == levelUnset {
			level = INFO
		}
		token := level.String()
		line = strings.Replace(line, token, levelColor(level)+token+"\033[0m", 1)
	}
	fmt.Fprintln(w.cfg.Echo, line)
}

func levelColor(l Level) string {
	switch l {
	case DEBUG:
		return "\033[36m" // cyan
	case WARN:
		return "\033[33m" // yellow
	case ERROR, CRITICAL:
		return "\033[31m" // red
	default:
		return "\033[32m" // green
	}
}
