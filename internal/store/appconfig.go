package store

import (
	"context"
	"fmt"
	"time"

	"github.com/leoarenas/smarttasks/internal/model"
)

// AppConfig 返回配置行，首次读取时按默认值创建。
func (s *Store) AppConfig(ctx context.Context) (*model.AppConfig, error) {
	var cfg model.AppConfig
	if err := s.db.WithContext(ctx).
		Where("id = ?", model.AppConfigID).
		Attrs(model.DefaultAppConfig()).
		FirstOrCreate(&cfg).Error; err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	return &cfg, nil
}

// UpdateAppConfig 更新配置行并刷新 updated_at。
func (s *Store) UpdateAppConfig(ctx context.Context, fields map[string]any) (*model.AppConfig, error) {
	if _, err := s.AppConfig(ctx); err != nil {
		return nil, err
	}
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&model.AppConfig{}).
		Where("id = ?", model.AppConfigID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update app config: %w", err)
	}
	return s.AppConfig(ctx)
}
