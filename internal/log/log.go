// Package log builds the process-wide zap logger BSQL's server and
// storage layers log through, the way
// other_examples/78f87779_storj-storj__satellite-metabase-db.go.go threads
// a *zap.Logger through its own storage layer.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger. When BSQL_LOG_FORMAT=json it uses zap's production
// JSON encoder (suited to a long-running daemon behind log aggregation);
// otherwise it uses the development console encoder.
func New() *zap.Logger {
	if os.Getenv("BSQL_LOG_FORMAT") == "json" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		logger, err := cfg.Build()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
