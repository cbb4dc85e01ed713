package repository

import (
	"context"
	"fmt"
	"time"

	"VizFM/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PresetRepository 场景预设仓储
type PresetRepository interface {
	Create(ctx context.Context, preset *model.ScenePreset) error
	Update(ctx context.Context, preset *model.ScenePreset) error
	GetByID(ctx context.Context, id string) (*model.ScenePreset, error)
	ListByUser(ctx context.Context, userID int64) ([]model.ScenePreset, error)
	Delete(ctx context.Context, id string) error
}

// GormPresetRepository 基于 GORM 的预设仓储
type GormPresetRepository struct {
	db *gorm.DB
}

// NewGormPresetRepository 创建预设仓储
func NewGormPresetRepository(db *gorm.DB) *GormPresetRepository {
	return &GormPresetRepository{db: db}
}

// Create 保存一个新预设，ID 为空时自动生成。
func (r *GormPresetRepository) Create(ctx context.Context, preset *model.ScenePreset) error {
	if preset.ID == "" {
		preset.ID = uuid.NewString()
	}
	preset.CreatedAt = time.Now()
	preset.UpdatedAt = preset.CreatedAt
	if err := r.db.WithContext(ctx).Create(preset).Error; err != nil {
		return fmt.Errorf("创建预设失败: %w", err)
	}
	return nil
}

// Update 整体更新一个预设
func (r *GormPresetRepository) Update(ctx context.Context, preset *model.ScenePreset) error {
	preset.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(preset).Error; err != nil {
		return fmt.Errorf("更新预设失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 查找预设，不存在返回 nil。
func (r *GormPresetRepository) GetByID(ctx context.Context, id string) (*model.ScenePreset, error) {
	var preset model.ScenePreset
	err := r.db.WithContext(ctx).First(&preset, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询预设失败: %w", err)
	}
	return &preset, nil
}

// ListByUser 列出用户的全部预设
func (r *GormPresetRepository) ListByUser(ctx context.Context, userID int64) ([]model.ScenePreset, error) {
	var presets []model.ScenePreset
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&presets).Error
	if err != nil {
		return nil, fmt.Errorf("查询预设列表失败: %w", err)
	}
	return presets, nil
}

// Delete 删除预设
func (r *GormPresetRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&model.ScenePreset{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("删除预设失败: %w", err)
	}
	return nil
}
