package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// New creates a new logger instance
func New(level string) *Logger {
	log := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	// Set output format
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	// Set output destination
	log.SetOutput(os.Stdout)

	return &Logger{Logger: log}
}

// WithFields creates a new logger entry with the specified fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithField creates a new logger entry with a single field
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError creates a new logger entry with an error field
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithComponent creates a new logger entry with component name field
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// WithView creates a new logger entry with view name field
func (l *Logger) WithView(view string) *logrus.Entry {
	return l.Logger.WithField("view", view)
}

// WithSession creates a new logger entry with session ID field
func (l *Logger) WithSession(sessionID string) *logrus.Entry {
	return l.Logger.WithField("session_id", sessionID)
}

// WithTopic creates a new logger entry with push topic field
func (l *Logger) WithTopic(topic string) *logrus.Entry {
	return l.Logger.WithField("topic", topic)
}

// WithToken creates a new logger entry with patient token field
func (l *Logger) WithToken(token int) *logrus.Entry {
	return l.Logger.WithField("token_number", token)
}

// Command logs command dispatch outcomes with structured format
func (l *Logger) Command(entity, action string, success bool, details map[string]interface{}) {
	entry := l.Logger.WithFields(logrus.Fields{
		"entity":  entity,
		"action":  action,
		"success": success,
		"details": details,
	})

	if success {
		entry.Info("Command completed")
	} else {
		entry.Error("Command failed")
	}
}
