package utils

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ETLLogger представляет логгер для конвейера
type ETLLogger struct {
	sugar     *zap.SugaredLogger
	isVerbose bool
}

// NewETLLogger создает новый экземпляр логгера.
// mode "prod"/"production" включает JSON-кодировщик, иначе консольный.
func NewETLLogger(mode string, verbose bool) (*ETLLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать логгер: %w", err)
	}

	return &ETLLogger{sugar: zapLogger.Sugar(), isVerbose: verbose}, nil
}

// NewNopLogger возвращает логгер, который ничего не пишет
func NewNopLogger() *ETLLogger {
	return &ETLLogger{sugar: zap.NewNop().Sugar()}
}

// FromZap оборачивает готовый zap-логгер
func FromZap(logger *zap.Logger, verbose bool) *ETLLogger {
	return &ETLLogger{sugar: logger.Sugar(), isVerbose: verbose}
}

// Sync сбрасывает буферы логгера
func (l *ETLLogger) Sync() {
	_ = l.sugar.Sync()
}

// With возвращает дочерний логгер с дополнительными полями
func (l *ETLLogger) With(keysAndValues ...interface{}) *ETLLogger {
	return &ETLLogger{sugar: l.sugar.With(keysAndValues...), isVerbose: l.isVerbose}
}

// Info логирует информационное сообщение
func (l *ETLLogger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warn логирует предупреждение
func (l *ETLLogger) Warn(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error логирует сообщение об ошибке
func (l *ETLLogger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Debug логирует отладочное сообщение (только если включен verbose режим)
func (l *ETLLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}
	l.sugar.Debugf(format, v...)
}

// LogPhaseStart логирует начало фазы конвейера
func (l *ETLLogger) LogPhaseStart(phase string) {
	l.Info("Начало фазы %s", phase)
}

// LogPhaseComplete логирует завершение фазы конвейера
func (l *ETLLogger) LogPhaseComplete(phase string, startTime time.Time) {
	l.Info("Фаза %s завершена. Длительность: %v", phase, time.Since(startTime))
}
