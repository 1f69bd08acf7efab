package membership

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// zapGormAdapter implements gormlogger.Interface for use with a zap.SugaredLogger.
type zapGormAdapter struct {
	zapper        *zap.SugaredLogger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func NewZapGormAdapter(zapper *zap.SugaredLogger) *zapGormAdapter {
	return &zapGormAdapter{
		zapper:        zapper,
		level:         gormlogger.Warn,
		slowThreshold: 200 * time.Millisecond,
	}
}

var gormToZapLevels = map[gormlogger.LogLevel]zapcore.Level{
	gormlogger.Info:  zapcore.DebugLevel,
	gormlogger.Warn:  zapcore.WarnLevel,
	gormlogger.Error: zapcore.ErrorLevel,
}

func (a *zapGormAdapter) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &zapGormAdapter{zapper: a.zapper, level: level, slowThreshold: a.slowThreshold}
}

func (a *zapGormAdapter) log(level gormlogger.LogLevel, message string, args ...interface{}) {
	if a.level < level {
		return
	}
	if zapLevel, found := gormToZapLevels[level]; found {
		a.addOne().zapper.Desugar().Log(zapLevel, message, zap.Any("args", args))
	}
}

func (a *zapGormAdapter) addOne() *zapGormAdapter {
	return &zapGormAdapter{
		zapper:        a.zapper.Desugar().WithOptions(zap.AddCallerSkip(2)).Sugar(),
		level:         a.level,
		slowThreshold: a.slowThreshold,
	}
}

func (a *zapGormAdapter) Info(ctx context.Context, message string, args ...interface{}) {
	a.log(gormlogger.Info, message, args...)
}

func (a *zapGormAdapter) Warn(ctx context.Context, message string, args ...interface{}) {
	a.log(gormlogger.Warn, message, args...)
}

func (a *zapGormAdapter) Error(ctx context.Context, message string, args ...interface{}) {
	a.log(gormlogger.Error, message, args...)
}

// Trace logs failed statements at error level and slow ones at warn level; the SQL is
// logged without its bound values.
func (a *zapGormAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if a.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && a.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		a.zapper.With(zap.Error(err), "sql", sql, "rows", rows, "elapsed", elapsed).Error("statement failed")
	case a.slowThreshold > 0 && elapsed > a.slowThreshold && a.level >= gormlogger.Warn:
		sql, rows := fc()
		a.zapper.With("sql", sql, "rows", rows, "elapsed", elapsed).Warn("slow statement")
	case a.level >= gormlogger.Info:
		sql, rows := fc()
		a.zapper.With("sql", sql, "rows", rows, "elapsed", elapsed).Debug("statement")
	}
}
