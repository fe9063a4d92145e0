package migration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrator creates tables from gorm models. It keeps no version table:
// version 1 means every model's table exists.
type AutoMigrator struct {
	db     *gorm.DB
	models []any
	logger *zap.Logger
}

// NewAutoMigrator 创建 AutoMigrator
func NewAutoMigrator(db *gorm.DB, logger *zap.Logger, models ...any) (*AutoMigrator, error) {
	if db == nil {
		return nil, errors.New("gorm db is required")
	}
	if len(models) == 0 {
		return nil, errors.New("at least one model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoMigrator{db: db, models: models, logger: logger.With(zap.String("component", "migration"))}, nil
}

// Up 执行 AutoMigrate
func (a *AutoMigrator) Up(ctx context.Context) error {
	if err := a.db.WithContext(ctx).AutoMigrate(a.models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	a.logger.Info("auto migrate complete", zap.Int("models", len(a.models)))
	return nil
}

func (a *AutoMigrator) Down(ctx context.Context) error { return ErrUnsupported }

// Steps 仅支持正向
func (a *AutoMigrator) Steps(ctx context.Context, n int) error {
	switch {
	case n > 0:
		return a.Up(ctx)
	case n < 0:
		return ErrUnsupported
	}
	return nil
}

func (a *AutoMigrator) Force(ctx context.Context, version int) error { return ErrUnsupported }

// Version 全部表存在时为 1
func (a *AutoMigrator) Version(ctx context.Context) (uint, bool, error) {
	statuses, err := a.Status(ctx)
	if err != nil {
		return 0, false, err
	}
	for _, s := range statuses {
		if !s.Applied {
			return 0, false, nil
		}
	}
	return 1, false, nil
}

// Status 每个模型一行
func (a *AutoMigrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	m := a.db.WithContext(ctx).Migrator()
	out := make([]MigrationStatus, 0, len(a.models))
	for i, model := range a.models {
		stmt := &gorm.Statement{DB: a.db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model: %w", err)
		}
		out = append(out, MigrationStatus{
			Version: uint(i + 1),
			Name:    stmt.Schema.Table,
			Applied: m.HasTable(model),
		})
	}
	return out, nil
}

// Info 迁移摘要
func (a *AutoMigrator) Info(ctx context.Context) (*MigrationInfo, error) {
	statuses, err := a.Status(ctx)
	if err != nil {
		return nil, err
	}
	current, _, err := a.Version(ctx)
	if err != nil {
		return nil, err
	}
	info := summarize(statuses, 0, false)
	info.CurrentVersion = current
	return info, nil
}

// Close 连接由调用方持有
func (a *AutoMigrator) Close() error { return nil }
