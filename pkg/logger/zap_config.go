// pkg/logger/zap_config.go
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Поток предупреждений о неудачных записях может быть плотным:
// в prod первые 100 одинаковых сообщений за секунду, дальше каждое 100-е.
const (
	sampleInitial    = 100
	sampleThereafter = 100
)

// buildZapConfig: dev — консоль без семплинга, prod — JSON с семплингом.
// Ключи одинаковые в обоих режимах, service/version в каждой записи.
func buildZapConfig(cfg Config, lvl zapcore.Level) zap.Config {
	var zc zap.Config
	if cfg.DevMode {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = &zap.SamplingConfig{Initial: sampleInitial, Thereafter: sampleThereafter}
	}
	applyEncoderKeys(&zc.EncoderConfig)
	zc.Level = zap.NewAtomicLevelAt(lvl)

	fields := make(map[string]interface{}, 2)
	if cfg.Service != "" {
		fields["service"] = cfg.Service
	}
	if cfg.Version != "" {
		fields["version"] = cfg.Version
	}
	if len(fields) > 0 {
		zc.InitialFields = fields
	}
	return zc
}

func applyEncoderKeys(ec *zapcore.EncoderConfig) {
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.CallerKey = "caller"
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	ec.StacktraceKey = "stacktrace"
}
