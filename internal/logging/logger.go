// Package logging provides config-driven, emitter-scoped file logging for
// Isomer tooling. Each emitter (db, schemata, backup, ...) writes to its own
// file under the instance log directory. Logging is controlled by the
// logging section of isomer.conf; without a config the package degrades to
// silent no-op loggers so library code never has to check for nil.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Emitter identifies the subsystem a log line originates from.
type Emitter string

const (
	EmitterBoot        Emitter = "boot"
	EmitterDB          Emitter = "db"
	EmitterSchemata    Emitter = "schemata"
	EmitterBackup      Emitter = "backup"
	EmitterMaintenance Emitter = "maintenance"
	EmitterScaffold    Emitter = "scaffold"
	EmitterDocs        Emitter = "docs"
	EmitterTool        Emitter = "tool"
	EmitterProvisions  Emitter = "provisions"
)

// Log levels. The numeric gaps follow the classic Isomer level table so
// configured thresholds stay meaningful across ports.
const (
	LevelVerbose  = 5
	LevelDebug    = 10
	LevelInfo     = 20
	LevelWarn     = 30
	LevelError    = 40
	LevelCritical = 50
)

var levelNames = map[int]string{
	LevelVerbose:  "VERBOSE",
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelWarn:     "WARN",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
}

// ParseLevel maps a configured level name to its numeric value.
// Unknown names fall back to info.
func ParseLevel(name string) int {
	switch name {
	case "verbose":
		return LevelVerbose
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "critical":
		return LevelCritical
	default:
		return LevelInfo
	}
}

// loggingConfig mirrors the logging section of config.Config to avoid a
// circular import; this package deliberately reads isomer.conf itself.
type loggingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Level      string          `yaml:"level"`
	Path       string          `yaml:"path"`
	JSONFormat bool            `yaml:"json_format"`
	Emitters   map[string]bool `yaml:"emitters"`
}

type configFile struct {
	Logging loggingConfig `yaml:"logging"`
}

// Entry is the structured form of a log line when json_format is on.
type Entry struct {
	Timestamp int64                  `json:"ts"`
	Emitter   string                 `json:"emitter"`
	Level     string                 `json:"lvl"`
	Message   string                 `json:"msg"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger writes lines for a single emitter. The zero value is a no-op.
type Logger struct {
	emitter Emitter
	logger  *log.Logger
	file    *os.File
}

var (
	loggers   = make(map[Emitter]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	config    loggingConfig
	configMu  sync.RWMutex
	logLevel  = LevelInfo
)

// Initialize loads the logging section of the given isomer.conf and opens
// the log directory. Call once at startup; a missing config file disables
// file logging without error.
func Initialize(configPath string) error {
	if err := loadConfig(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not load config: %v\n", err)
		config.Enabled = false
	}

	if !config.Enabled {
		return nil
	}

	logsDir = config.Path
	if logsDir == "" {
		logsDir = filepath.Join(filepath.Dir(configPath), "var", "log")
	}
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	boot := Get(EmitterBoot)
	boot.Info("=== Isomer logging initialized ===")
	boot.Info("Log directory: %s", logsDir)
	boot.Info("Level: %s", levelNames[logLevel])
	return nil
}

func loadConfig(configPath string) error {
	configMu.Lock()
	defer configMu.Unlock()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			config = loggingConfig{}
			return nil
		}
		return err
	}

	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	config = cf.Logging
	logLevel = ParseLevel(config.Level)
	return nil
}

// SetLevel overrides the configured threshold (used by --verbose/--quiet).
func SetLevel(level int) {
	configMu.Lock()
	defer configMu.Unlock()
	logLevel = level
}

// Enable turns on file logging to the given directory without a config
// file. Tests and one-shot commands use this.
func Enable(dir string, level int) error {
	configMu.Lock()
	config.Enabled = true
	config.Emitters = nil
	logLevel = level
	configMu.Unlock()

	logsDir = dir
	return os.MkdirAll(dir, 0o755)
}

// IsEmitterEnabled reports whether lines from the emitter are written.
// Without an emitter map every emitter is on.
func IsEmitterEnabled(emitter Emitter) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !config.Enabled {
		return false
	}
	if config.Emitters == nil {
		return true
	}
	enabled, ok := config.Emitters[string(emitter)]
	if !ok {
		return true
	}
	return enabled
}

// Get returns (or creates) the logger for an emitter. Disabled emitters
// get a no-op logger, as does any file-open failure.
func Get(emitter Emitter) *Logger {
	if !IsEmitterEnabled(emitter) || logsDir == "" {
		return &Logger{emitter: emitter}
	}

	loggersMu.RLock()
	if l, ok := loggers[emitter]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[emitter]; ok {
		return l
	}

	// Date prefix keeps rotation a matter of deleting old files.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, emitter))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not open %s: %v\n", logPath, err)
		return &Logger{emitter: emitter}
	}

	l := &Logger{
		emitter: emitter,
		file:    file,
		logger:  log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[emitter] = l
	return l
}

func (l *Logger) log(level int, format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	configMu.RLock()
	gate := logLevel
	jsonFormat := config.JSONFormat
	configMu.RUnlock()
	if level < gate && level < LevelCritical {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if jsonFormat {
		entry := Entry{
			Timestamp: time.Now().UnixMilli(),
			Emitter:   string(l.emitter),
			Level:     levelNames[level],
			Message:   msg,
		}
		if data, err := json.Marshal(entry); err == nil {
			l.logger.Printf("%s", data)
			return
		}
	}
	l.logger.Printf("[%s] %s", levelNames[level], msg)
}

func (l *Logger) Verbose(format string, args ...interface{}) {
	l.log(LevelVerbose, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Critical bypasses the level gate; these lines always reach the file.
func (l *Logger) Critical(format string, args ...interface{}) {
	l.log(LevelCritical, format, args...)
}

// Structured writes an entry with additional fields, JSON format permitting.
func (l *Logger) Structured(level int, msg string, fields map[string]interface{}) {
	if l.logger == nil {
		return
	}
	configMu.RLock()
	jsonFormat := config.JSONFormat
	configMu.RUnlock()
	if jsonFormat {
		entry := Entry{
			Timestamp: time.Now().UnixMilli(),
			Emitter:   string(l.emitter),
			Level:     levelNames[level],
			Message:   msg,
			Fields:    fields,
		}
		if data, err := json.Marshal(entry); err == nil {
			l.logger.Printf("%s", data)
			return
		}
	}
	l.logger.Printf("[%s] %s | fields=%v", levelNames[level], msg, fields)
}

// CloseAll closes every open log file. Call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Emitter]*Logger)
}

// Convenience wrappers for the busiest emitters.

func DB(format string, args ...interface{}) {
	Get(EmitterDB).Info(format, args...)
}

func DBDebug(format string, args ...interface{}) {
	Get(EmitterDB).Debug(format, args...)
}

func DBError(format string, args ...interface{}) {
	Get(EmitterDB).Error(format, args...)
}

func Tool(format string, args ...interface{}) {
	Get(EmitterTool).Info(format, args...)
}

func ToolDebug(format string, args ...interface{}) {
	Get(EmitterTool).Debug(format, args...)
}

func Backup(format string, args ...interface{}) {
	Get(EmitterBackup).Info(format, args...)
}

func Schemata(format string, args ...interface{}) {
	Get(EmitterSchemata).Debug(format, args...)
}

// Timer measures an operation and logs its duration on Stop.
type Timer struct {
	emitter Emitter
	op      string
	start   time.Time
}

func StartTimer(emitter Emitter, operation string) *Timer {
	return &Timer{emitter: emitter, op: operation, start: time.Now()}
}

func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.emitter).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold warns when the operation exceeded the threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.emitter).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.emitter).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
