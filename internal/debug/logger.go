package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the centralized logging facility for the synthesis engine.
//
// It keeps a bounded circular buffer of recent entries for test assertions
// and debugger-style inspection (GetEntries/GetRecentEntries), and hands
// every entry that passes the component/level gate to a console backend
// (charmbracelet/log) so a developer tailing stdout sees structured,
// leveled output. The buffer write and the console write both happen off
// the caller's goroutine via a single feeder channel, so Log() from the
// render path is a bounded, non-blocking channel send.
type Logger struct {
	// Circular buffer for log entries
	entries    []LogEntry
	entriesMu  sync.RWMutex
	maxEntries int
	writeIndex int
	entryCount int

	// Component enable/disable flags
	componentEnabled map[Component]bool
	componentMu      sync.RWMutex

	// Minimum log level (entries below this level are filtered)
	minLevel LogLevel
	levelMu  sync.RWMutex

	console *charmlog.Logger

	// Channel for thread-safe logging
	logChan chan LogEntry

	// Shutdown channel
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewLogger creates a new logger instance. Console output is written to w;
// pass nil to default to os.Stderr.
func NewLogger(maxEntries int, w io.Writer) *Logger {
	if maxEntries < 100 {
		maxEntries = 100 // Minimum buffer size
	}
	if w == nil {
		w = os.Stderr
	}

	logger := &Logger{
		entries:          make([]LogEntry, maxEntries),
		maxEntries:       maxEntries,
		writeIndex:       0,
		entryCount:       0,
		componentEnabled: make(map[Component]bool),
		minLevel:         LogLevelInfo, // Default to Info level
		console:          charmlog.NewWithOptions(w, charmlog.Options{ReportTimestamp: true}),
		logChan:          make(chan LogEntry, 1000), // Buffered channel
		shutdown:         make(chan struct{}),
	}

	// Disable all components by default (logging is opt-in)
	logger.componentEnabled[ComponentVoice] = false
	logger.componentEnabled[ComponentPool] = false
	logger.componentEnabled[ComponentZone] = false
	logger.componentEnabled[ComponentChannel] = false
	logger.componentEnabled[ComponentMixer] = false
	logger.componentEnabled[ComponentSystem] = false

	// Start log processing goroutine
	logger.wg.Add(1)
	go logger.processLogs()

	return logger
}

// processLogs processes log entries from the channel
func (l *Logger) processLogs() {
	defer l.wg.Done()

	for {
		select {
		case entry := <-l.logChan:
			l.addEntry(entry)
			l.writeConsole(entry)
		case <-l.shutdown:
			// Drain remaining logs
			for {
				select {
				case entry := <-l.logChan:
					l.addEntry(entry)
					l.writeConsole(entry)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) writeConsole(entry LogEntry) {
	fields := make([]interface{}, 0, len(entry.Data)*2)
	for k, v := range entry.Data {
		fields = append(fields, k, v)
	}
	logger := l.console.With("component", string(entry.Component))
	switch entry.Level {
	case LogLevelError:
		logger.Error(entry.Message, fields...)
	case LogLevelWarning:
		logger.Warn(entry.Message, fields...)
	case LogLevelInfo:
		logger.Info(entry.Message, fields...)
	default:
		logger.Debug(entry.Message, fields...)
	}
}

// addEntry adds a log entry to the circular buffer
func (l *Logger) addEntry(entry LogEntry) {
	l.entriesMu.Lock()
	defer l.entriesMu.Unlock()

	// Add entry at current write index
	l.entries[l.writeIndex] = entry
	l.writeIndex = (l.writeIndex + 1) % l.maxEntries

	// Update entry count (don't exceed maxEntries)
	if l.entryCount < l.maxEntries {
		l.entryCount++
	}
}

// Log logs a message with the specified component and level
func (l *Logger) Log(component Component, level LogLevel, message string, data map[string]interface{}) {
	// Check if component is enabled
	l.componentMu.RLock()
	enabled := l.componentEnabled[component]
	l.componentMu.RUnlock()

	if !enabled {
		return
	}

	// Check if level is high enough
	l.levelMu.RLock()
	minLevel := l.minLevel
	l.levelMu.RUnlock()

	if level < minLevel {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Component: component,
		Level:     level,
		Message:   message,
		Data:      data,
	}

	// Send to channel (non-blocking if channel is full)
	select {
	case l.logChan <- entry:
	default:
		// Channel is full, drop entry to avoid blocking the render path.
	}
}

// Logf logs a formatted message
func (l *Logger) Logf(component Component, level LogLevel, format string, args ...interface{}) {
	l.Log(component, level, fmt.Sprintf(format, args...), nil)
}

// Convenience methods for each component
func (l *Logger) LogVoice(level LogLevel, message string, data map[string]interface{}) {
	l.Log(ComponentVoice, level, message, data)
}

func (l *Logger) LogPool(level LogLevel, message string, data map[string]interface{}) {
	l.Log(ComponentPool, level, message, data)
}

func (l *Logger) LogZone(level LogLevel, message string, data map[string]interface{}) {
	l.Log(ComponentZone, level, message, data)
}

func (l *Logger) LogChannel(level LogLevel, message string, data map[string]interface{}) {
	l.Log(ComponentChannel, level, message, data)
}

func (l *Logger) LogMixer(level LogLevel, message string, data map[string]interface{}) {
	l.Log(ComponentMixer, level, message, data)
}

func (l *Logger) LogSystem(level LogLevel, message string, data map[string]interface{}) {
	l.Log(ComponentSystem, level, message, data)
}

// Convenience methods with formatted strings
func (l *Logger) LogVoicef(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentVoice, level, format, args...)
}

func (l *Logger) LogPoolf(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentPool, level, format, args...)
}

func (l *Logger) LogZonef(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentZone, level, format, args...)
}

func (l *Logger) LogChannelf(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentChannel, level, format, args...)
}

func (l *Logger) LogMixerf(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentMixer, level, format, args...)
}

func (l *Logger) LogSystemf(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentSystem, level, format, args...)
}

// GetEntries returns a copy of all log entries (oldest first)
func (l *Logger) GetEntries() []LogEntry {
	l.entriesMu.RLock()
	defer l.entriesMu.RUnlock()

	if l.entryCount == 0 {
		return []LogEntry{}
	}

	entries := make([]LogEntry, l.entryCount)

	if l.entryCount < l.maxEntries {
		// Buffer not full yet, return entries from 0 to entryCount
		copy(entries, l.entries[:l.entryCount])
	} else {
		// Buffer is full, return entries starting from writeIndex (oldest)
		// and wrapping around
		for i := 0; i < l.entryCount; i++ {
			idx := (l.writeIndex + i) % l.maxEntries
			entries[i] = l.entries[idx]
		}
	}

	return entries
}

// GetRecentEntries returns the most recent N entries
func (l *Logger) GetRecentEntries(count int) []LogEntry {
	allEntries := l.GetEntries()
	if count >= len(allEntries) {
		return allEntries
	}
	return allEntries[len(allEntries)-count:]
}

// Clear clears all log entries
func (l *Logger) Clear() {
	l.entriesMu.Lock()
	defer l.entriesMu.Unlock()

	l.entryCount = 0
	l.writeIndex = 0
}

// SetComponentEnabled enables or disables logging for a component
func (l *Logger) SetComponentEnabled(component Component, enabled bool) {
	l.componentMu.Lock()
	defer l.componentMu.Unlock()
	l.componentEnabled[component] = enabled
}

// IsComponentEnabled returns whether a component is enabled
func (l *Logger) IsComponentEnabled(component Component) bool {
	l.componentMu.RLock()
	defer l.componentMu.RUnlock()
	return l.componentEnabled[component]
}

// SetMinLevel sets the minimum log level
func (l *Logger) SetMinLevel(level LogLevel) {
	l.levelMu.Lock()
	defer l.levelMu.Unlock()
	l.minLevel = level
}

// GetMinLevel returns the minimum log level
func (l *Logger) GetMinLevel() LogLevel {
	l.levelMu.RLock()
	defer l.levelMu.RUnlock()
	return l.minLevel
}

// Shutdown shuts down the logger and waits for all logs to be processed
func (l *Logger) Shutdown() {
	close(l.shutdown)
	l.wg.Wait()
}
