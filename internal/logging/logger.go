package logging

import (
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	mu     sync.RWMutex
)

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "WSECHO_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks WSECHO_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		setLogger(zap.NewNop())
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	setLogger(built)

	return nil
}

// InitializeFromEnv initializes the logger from the WSECHO_LOG_LEVEL
// environment variable.
func InitializeFromEnv() error {
	return Initialize("")
}

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer cores.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	setLogger(l)
}

func setLogger(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// StdLogger adapts the global logger for APIs that want a *log.Logger,
// such as http.Server.ErrorLog. Lines are logged at warn level.
func StdLogger() *log.Logger {
	std, err := zap.NewStdLogAt(GetLogger(), zapcore.WarnLevel)
	if err != nil {
		return zap.NewStdLog(GetLogger())
	}
	return std
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogConnection logs a connection event
func LogConnection(remoteAddr string, event string) {
	Info("Connection event",
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// LogTLSHandshake logs TLS handshake details
func LogTLSHandshake(remoteAddr string, version uint16, cipherSuite uint16, serverName string) {
	Info("TLS handshake completed",
		zap.String("remote_addr", remoteAddr),
		zap.String("tls_version", tls.VersionName(version)),
		zap.String("cipher_suite", tls.CipherSuiteName(cipherSuite)),
		zap.String("server_name", serverName),
	)
}

// LogHTTPRequest logs an HTTP request
func LogHTTPRequest(remoteAddr string, method string, path string, headers map[string]string) {
	Debug("HTTP request received",
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
		zap.Any("headers", headers),
	)
}

// LogWebSocketMessage logs a WebSocket message
func LogWebSocketMessage(connID string, remoteAddr string, direction string, messageType int, data []byte) {
	fields := []zap.Field{
		zap.String("conn_id", connID),
		zap.String("remote_addr", remoteAddr),
		zap.String("direction", direction),
		zap.String("message_type", MessageTypeName(messageType)),
		zap.Int("length", len(data)),
	}

	if messageType == 2 || GetLogger().Core().Enabled(zapcore.DebugLevel) {
		fields = append(fields, zap.String("hex_dump", hexDump(data)))
	}

	if messageType == 1 {
		fields = append(fields, zap.String("content", string(data)))
	}

	Info("WebSocket message", fields...)
}

// LogRawBytes logs raw bytes at debug level
func LogRawBytes(label string, data []byte) {
	Debug(label,
		zap.Int("length", len(data)),
		zap.String("hex", hexDump(data)),
		zap.String("ascii", asciiDump(data)),
	)
}

// MessageTypeName returns the RFC 6455 name of a message opcode.
func MessageTypeName(msgType int) string {
	switch msgType {
	case 1:
		return "text"
	case 2:
		return "binary"
	case 8:
		return "close"
	case 9:
		return "ping"
	case 10:
		return "pong"
	default:
		return fmt.Sprintf("unknown(%d)", msgType)
	}
}

func hexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	// Limit to first 256 bytes for logging
	if len(data) > 256 {
		return hex.EncodeToString(data[:256]) + "..."
	}
	return hex.EncodeToString(data)
}

func asciiDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > 256 {
		data = data[:256]
	}

	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}

// Sync flushes any buffered log entries
func Sync() {
	_ = GetLogger().Sync()
}
