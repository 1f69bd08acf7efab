package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kindo-app/doorbell/testutil"
)

func TestZapGormAdapterTrace(t *testing.T) {
	logger, logs := testutil.NewObservedLogger(t)
	adapter := NewZapGormAdapter(logger)
	statement := func() (string, int64) { return `INSERT INTO "profiles"`, 0 }

	adapter.Trace(context.Background(), time.Now(), statement, errors.New("duplicate key"))
	testutil.RequireLogged(t, logs, "statement failed")

	adapter.Trace(context.Background(), time.Now().Add(-time.Second), statement, nil)
	testutil.RequireLogged(t, logs, "slow statement")

	adapter.Trace(context.Background(), time.Now(), statement, nil)
	assert.Equal(t, 0, logs.FilterMessage("statement").Len(), "fast statements are not logged at warn level")

	adapter.LogMode(gormlogger.Info).Trace(context.Background(), time.Now(), statement, nil)
	assert.Equal(t, 1, logs.FilterMessage("statement").Len())
}

func TestZapGormAdapterLevels(t *testing.T) {
	logger, logs := testutil.NewObservedLogger(t)
	adapter := NewZapGormAdapter(logger)

	adapter.Info(context.Background(), "info message")
	adapter.Warn(context.Background(), "warn message")
	adapter.LogMode(gormlogger.Silent).Error(context.Background(), "silenced")

	assert.Equal(t, 0, logs.FilterMessage("info message").Len())
	assert.Equal(t, 1, logs.FilterMessage("warn message").Len())
	assert.Equal(t, 0, logs.FilterMessage("silenced").Len())
}
