package repository

import (
	"context"
	"fmt"
	"time"

	"VizFM/model"

	"gorm.io/gorm"
)

// CaptureRepository 录制记录仓储
type CaptureRepository interface {
	Create(ctx context.Context, rec *model.CaptureRecord) error
	GetByID(ctx context.Context, id string) (*model.CaptureRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.CaptureRecord, error)
}

// GormCaptureRepository 基于 GORM 的录制记录仓储
type GormCaptureRepository struct {
	db *gorm.DB
}

// NewGormCaptureRepository 创建录制记录仓储
func NewGormCaptureRepository(db *gorm.DB) *GormCaptureRepository {
	return &GormCaptureRepository{db: db}
}

// Create 登记一条已完成的录制
func (r *GormCaptureRepository) Create(ctx context.Context, rec *model.CaptureRecord) error {
	rec.CreatedAt = time.Now()
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("登记录制记录失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 查找录制记录，不存在返回 nil。
func (r *GormCaptureRepository) GetByID(ctx context.Context, id string) (*model.CaptureRecord, error) {
	var rec model.CaptureRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询录制记录失败: %w", err)
	}
	return &rec, nil
}

// ListBySession 列出一个会话的全部录制记录
func (r *GormCaptureRepository) ListBySession(ctx context.Context, sessionID string) ([]model.CaptureRecord, error) {
	var recs []model.CaptureRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("查询录制记录列表失败: %w", err)
	}
	return recs, nil
}
