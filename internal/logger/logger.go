package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"ms-booking/internal/config"

	"github.com/fatih/color"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// ParseLevel maps a config value such as "warn" to a level; unknown values fall back to INFO.
func ParseLevel(s string) LogLevel {
	for level, name := range levelNames {
		if strings.EqualFold(s, name) {
			return level
		}
	}
	return INFO
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "INFO"
}

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

type Logger struct {
	mu           sync.Mutex
	terminal     io.Writer
	jsonOut      io.Writer
	logFile      *os.File
	minLevel     LogLevel
	colorEnabled bool
	exit         func(int)
}

// New writes coloured lines to stdout and JSON lines to <dir>/<service>-<date>.log.
func New(cfg config.LoggingConfig) (*Logger, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	logFileName := filepath.Join(cfg.Dir, fmt.Sprintf("%s-%s.log", cfg.Service, time.Now().Format("2006-01-02")))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &Logger{
		terminal:     os.Stdout,
		jsonOut:      logFile,
		logFile:      logFile,
		minLevel:     ParseLevel(cfg.Level),
		colorEnabled: true,
		exit:         os.Exit,
	}
	l.Info("LOGGER", fmt.Sprintf("Log file: %s", logFileName))
	return l, nil
}

// NewWithWriter sends JSON lines to w and nothing to the terminal.
func NewWithWriter(w io.Writer, minLevel LogLevel) *Logger {
	return &Logger{
		terminal: io.Discard,
		jsonOut:  w,
		minLevel: minLevel,
		exit:     os.Exit,
	}
}

// Nop discards everything.
func Nop() *Logger {
	return NewWithWriter(io.Discard, FATAL+1)
}

func (l *Logger) log(level LogLevel, category, message string) {
	if level < l.minLevel {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     level.String(),
		Category:  strings.ToUpper(category),
		Message:   message,
		File:      file,
		Line:      line,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.terminal, l.formatTerminalOutput(entry))
	if jsonBytes, err := json.Marshal(entry); err == nil {
		l.jsonOut.Write(append(jsonBytes, '\n'))
	}
}

type palette struct {
	level, category *color.Color
}

var palettes = map[string]palette{
	"DEBUG": {color.New(color.FgCyan), color.New(color.FgCyan, color.Bold)},
	"INFO":  {color.New(color.FgGreen), color.New(color.FgGreen, color.Bold)},
	"WARN":  {color.New(color.FgYellow), color.New(color.FgYellow, color.Bold)},
	"ERROR": {color.New(color.FgRed), color.New(color.FgRed, color.Bold)},
	"FATAL": {color.New(color.FgRed, color.Bold), color.New(color.FgRed, color.Bold)},
}

var (
	clockColor  = color.New(color.FgBlue)
	callerColor = color.New(color.FgMagenta)
)

// formatTerminalOutput renders "15:04:05 LEVEL [CATEGORY  ] message (file:line)".
func (l *Logger) formatTerminalOutput(entry LogEntry) string {
	clock, level, category := entry.Timestamp[11:19], fmt.Sprintf("%-5s", entry.Level), fmt.Sprintf("[%-10s]", entry.Category)
	caller := ""
	if entry.File != "" && entry.Line > 0 {
		caller = fmt.Sprintf(" (%s:%d)", entry.File, entry.Line)
	}
	if !l.colorEnabled {
		return fmt.Sprintf("%s %s %s %s\n", clock, level, category, entry.Message)
	}

	p, ok := palettes[entry.Level]
	if !ok {
		p = palettes["INFO"]
	}
	if caller != "" {
		caller = callerColor.Sprint(caller)
	}
	return fmt.Sprintf("%s %s %s %s%s\n",
		clockColor.Sprint(clock), p.level.Sprint(level), p.category.Sprint(category), entry.Message, caller)
}

func (l *Logger) Debug(category, message string) {
	l.log(DEBUG, category, message)
}

func (l *Logger) Info(category, message string) {
	l.log(INFO, category, message)
}

func (l *Logger) Warn(category, message string) {
	l.log(WARN, category, message)
}

func (l *Logger) Error(category, message string) {
	l.log(ERROR, category, message)
}

func (l *Logger) Fatal(category, message string) {
	l.log(FATAL, category, message)
	l.exit(1)
}

// LogBooking records a lifecycle step of one booking, keyed by its reference.
func (l *Logger) LogBooking(action, reference, message string) {
	l.log(INFO, "BOOKING", fmt.Sprintf("%s ref=%s: %s", strings.ToLower(action), reference, message))
}

func (l *Logger) LogAPI(method, path string, status int, duration time.Duration) {
	l.log(INFO, "API", fmt.Sprintf("%s %s - %d (%s)", method, path, status, duration))
}

func (l *Logger) LogKafka(action, topic, message string) {
	l.log(INFO, "KAFKA", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.log(INFO, "DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

func (l *Logger) LogSecurity(event, message string) {
	l.log(WARN, "SECURITY", fmt.Sprintf("[%s] %s", event, message))
}

func (l *Logger) Close() {
	if l.logFile != nil {
		l.Debug("LOGGER", "closing log file")
		_ = l.logFile.Close()
	}
}
