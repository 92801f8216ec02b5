// Package membuffer implements a cursor based binary buffer that reads and
// writes structured records described by a declarative schema.
//
// A Buffer holds a growable byte region and a single cursor shared by reads
// and writes. On top of the primitive encodings (little endian integers,
// IEEE-754 floats, fixed or NUL terminated Latin-1 strings and raw bytes) it
// can walk a Schema, an ordered description of named fields, and produce or
// consume a whole record in one pass. Compiled schema handlers are cached per
// buffer so repeated reads of the same layout skip the dispatch work.
//
// Some examples on using the API are implemented as executable go programs in the
// `examples` subdirectory.
package membuffer

import (
	"hash/fnv"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is the last tagged version of the package
const Version = "1.0.0"

// logging gates every log call in the package, it is off until a program
// opts in
var logging bool
var logWriters = []zapcore.WriteSyncer{os.Stdout}
var logger *zap.Logger
var zapEncoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "level",
	NameKey:        "logger",
	CallerKey:      "caller",
	MessageKey:     "msg",
	StacktraceKey:  "stacktrace",
	EncodeLevel:    zapcore.LowercaseLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
}

// configErr is the first malformed MEMBUFFER_* variable seen at startup,
// reported once logging is switched on
var (
	configErr      error
	configReported bool
)

// ConfigError returns the error met while reading the MEMBUFFER_* environment
// variables at startup, nil if they were all valid or absent. The defaults
// affected by a malformed variable keep their built in values.
func ConfigError() error { return configErr }

// EnableLogging turns the buffer, cache and registry logs on or off. Turning
// them on for the first time also reports a malformed environment override.
func EnableLogging(enable bool) {
	logging = enable
	if enable {
		reportConfigError()
	}
}

func reportConfigError() {
	if configErr == nil || configReported {
		return
	}
	configReported = true

	logger.Error("ignored malformed buffer default from the environment",
		zap.String("module", "config"),
		zap.Error(configErr),
	)
}

// AddLogWriter sends the logs to w as well as to the current writers
func AddLogWriter(w io.Writer) {
	logWriters = append(logWriters, zapcore.AddSync(w))
	buildLogger()
}

// SetLogWriters replaces the log destinations with writers
func SetLogWriters(writers ...io.Writer) {
	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, w := range writers {
		syncers = append(syncers, zapcore.AddSync(w))
	}

	logWriters = syncers
	buildLogger()
}

func buildLogger() {
	logger = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapEncoderConfig),
		zap.CombineWriteSyncers(logWriters...),
		zapcore.InfoLevel,
	))
}

func init() {
	logging = false
	buildLogger()

	configErr = initConfig()
}

// Fingerprint returns a 64 bit FNV-1a hash of the structural form of a schema
func Fingerprint(s Schema) uint64 {
	if s == nil {
		return 0
	}
	return hash(s.String())
}

// NOTE: make sure this is as fast as possible
func hash(s string) uint64 {
	h := fnv.New64a()

	_, err := h.Write([]byte(s))
	if err != nil {
		panic(err)
	}

	return h.Sum64()
}
