// Package membership writes profile and family membership rows straight into the
// backend's Postgres database. It is used instead of the backend's row API when
// MEMBERSHIP_DATABASE_URL is set.
package membership

import (
	"context"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kindo-app/doorbell/models"
)

type Config struct {
	DatabaseURL string `envconfig:"MEMBERSHIP_DATABASE_URL"`
}

func (c Config) Enabled() bool {
	return c.DatabaseURL != ""
}

func ConfigProvider() (Config, error) {
	config := Config{}
	err := envconfig.Process("", &config)
	return config, err
}

type Recorder struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// Open connects to the database. The tables are owned by the backend and never migrated here.
func Open(config Config, logger *zap.SugaredLogger) (*Recorder, error) {
	db, err := gorm.Open(postgres.Open(config.DatabaseURL), &gorm.Config{
		Logger:                 NewZapGormAdapter(logger),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connecting to membership database")
	}
	return New(db, logger), nil
}

func New(db *gorm.DB, logger *zap.SugaredLogger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

func (r *Recorder) RecordProfile(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return err
	}
	r.logger.Debugw("profile row inserted", "userId", profile.ID)
	return nil
}

func (r *Recorder) RecordFamilyMember(ctx context.Context, member *models.FamilyMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return err
	}
	r.logger.Debugw("family member row inserted", "userId", member.UserID, "familyId", member.FamilyID)
	return nil
}

func (r *Recorder) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Recorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
