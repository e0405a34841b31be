package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/devnla/backend-express/internal/common/constants"
)

type Fields map[string]interface{}

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	CRITICAL
)

var levelNames = map[LogLevel]string{
	DEBUG:    "DEBUG",
	INFO:     "INFO",
	WARNING:  "WARNING",
	ERROR:    "ERROR",
	CRITICAL: "CRITICAL",
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

// callerDepth skips emit, logWithFields and the public method.
const callerDepth = 3

type Logger struct {
	mu          sync.RWMutex
	level       LogLevel
	json        bool
	serviceName string

	writeMu sync.Mutex
	out     io.Writer
	now     func() time.Time
}

// New writes to stdout and, when logDir is set, to a rotating app.log inside it.
func New(logDir, serviceName, level string) (*Logger, error) {
	var w io.Writer = os.Stdout

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "app.log"),
			MaxSize:    constants.LoggerMaxSize,
			MaxBackups: constants.LoggerMaxBackups,
			MaxAge:     constants.LoggerMaxAge,
			Compress:   true,
		}
		w = io.MultiWriter(os.Stdout, fileWriter)
	}

	return NewWithWriter(w, serviceName, level), nil
}

func NewWithWriter(w io.Writer, serviceName, level string) *Logger {
	return &Logger{
		level:       parseLevel(level),
		out:         w,
		serviceName: serviceName,
		now:         time.Now,
	}
}

func (l *Logger) SetLevel(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = parseLevel(level)
}

// SetFormat switches between the bracketed text layout and one JSON object
// per line. Unknown formats fall back to text.
func (l *Logger) SetFormat(format string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.json = strings.EqualFold(strings.TrimSpace(format), FormatJSON)
}

func (l *Logger) ShouldLog(level LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

func (l *Logger) logWithFields(level LogLevel, ctx context.Context, msg string, fields Fields) {
	l.mu.RLock()
	currentLevel, asJSON, service := l.level, l.json, l.serviceName
	l.mu.RUnlock()

	if level < currentLevel {
		return
	}
	l.emit(level, ctx, msg, fields, asJSON, service)
}

func (l *Logger) emit(level LogLevel, ctx context.Context, msg string, fields Fields, asJSON bool, service string) {
	traceID := ""
	if ctx != nil {
		if id, ok := ctx.Value(constants.TraceIDKey).(string); ok {
			if _, dup := fields["trace_id"]; !dup {
				traceID = id
			}
		}
	}

	_, file, line, ok := runtime.Caller(callerDepth)
	caller := "unknown:0"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	var buf bytes.Buffer
	if asJSON {
		writeJSON(&buf, l.now(), level, service, traceID, caller, msg, fields)
	} else {
		writeText(&buf, l.now(), level, service, traceID, caller, msg, fields)
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_, _ = l.out.Write(buf.Bytes())
}

func writeText(buf *bytes.Buffer, ts time.Time, level LogLevel, service, traceID, caller, msg string, fields Fields) {
	buf.WriteString(ts.Format("2006/01/02 15:04:05 "))
	fmt.Fprintf(buf, "[%s]", levelNames[level])
	if service != "" {
		fmt.Fprintf(buf, " [%s]", service)
	}

	var parts []string
	if traceID != "" {
		parts = append(parts, "trace_id="+traceID)
	}
	for _, k := range sortedKeys(fields) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	if len(parts) > 0 {
		fmt.Fprintf(buf, " [%s]", strings.Join(parts, " "))
	}

	fmt.Fprintf(buf, " %s %s\n", caller, msg)
}

func writeJSON(buf *bytes.Buffer, ts time.Time, level LogLevel, service, traceID, caller, msg string, fields Fields) {
	record := make(map[string]any, len(fields)+6)
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		record[k] = v
	}
	record["time"] = ts.UTC().Format(time.RFC3339Nano)
	record["level"] = levelNames[level]
	record["caller"] = caller
	record["msg"] = msg
	if service != "" {
		record["service"] = service
	}
	if traceID != "" {
		record["trace_id"] = traceID
	}

	if err := json.NewEncoder(buf).Encode(record); err != nil {
		fmt.Fprintf(buf, `{"level":"ERROR","msg":"unencodable log record: %s"}`+"\n", err)
	}
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *Logger) Debug(msg string)    { l.logWithFields(DEBUG, nil, msg, nil) }
func (l *Logger) Info(msg string)     { l.logWithFields(INFO, nil, msg, nil) }
func (l *Logger) Warn(msg string)     { l.logWithFields(WARNING, nil, msg, nil) }
func (l *Logger) Error(msg string)    { l.logWithFields(ERROR, nil, msg, nil) }
func (l *Logger) Critical(msg string) { l.logWithFields(CRITICAL, nil, msg, nil) }

func (l *Logger) Debugf(format string, args ...any) {
	l.logWithFields(DEBUG, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logWithFields(INFO, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logWithFields(WARNING, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logWithFields(ERROR, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.logWithFields(CRITICAL, nil, fmt.Sprintf(format, args...), nil)
	os.Exit(1)
}

// Writer adapts the logger to io.Writer for libraries that only accept a
// *log.Logger; every write becomes one record at level.
func (l *Logger) Writer(level LogLevel) io.Writer {
	return levelWriter{logger: l, level: level}
}

type levelWriter struct {
	logger *Logger
	level  LogLevel
}

func (w levelWriter) Write(p []byte) (int, error) {
	w.logger.logWithFields(w.level, nil, strings.TrimRight(string(p), "\n"), nil)
	return len(p), nil
}

func (l *Logger) WithFields(ctx context.Context, fields Fields) *Entry {
	return &Entry{
		logger: l,
		ctx:    ctx,
		fields: fields,
	}
}

type Entry struct {
	logger *Logger
	ctx    context.Context
	fields Fields
}

func (e *Entry) Debug(msg string)    { e.logger.logWithFields(DEBUG, e.ctx, msg, e.fields) }
func (e *Entry) Info(msg string)     { e.logger.logWithFields(INFO, e.ctx, msg, e.fields) }
func (e *Entry) Warn(msg string)     { e.logger.logWithFields(WARNING, e.ctx, msg, e.fields) }
func (e *Entry) Error(msg string)    { e.logger.logWithFields(ERROR, e.ctx, msg, e.fields) }
func (e *Entry) Critical(msg string) { e.logger.logWithFields(CRITICAL, e.ctx, msg, e.fields) }

func (e *Entry) Debugf(format string, args ...any) {
	e.logger.logWithFields(DEBUG, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Infof(format string, args ...any) {
	e.logger.logWithFields(INFO, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Warnf(format string, args ...any) {
	e.logger.logWithFields(WARNING, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Errorf(format string, args ...any) {
	e.logger.logWithFields(ERROR, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Criticalf(format string, args ...any) {
	e.logger.logWithFields(CRITICAL, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func parseLevel(value string) LogLevel {
	switch strings.TrimSpace(strings.ToUpper(value)) {
	case "DEBUG":
		return DEBUG
	case "WARNING", "WARN":
		return WARNING
	case "ERROR":
		return ERROR
	case "CRITICAL":
		return CRITICAL
	default:
		return INFO
	}
}
