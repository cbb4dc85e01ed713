package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"VizFM/logger"
	"VizFM/model"
)

// artifactKey 按录制 ID 生成产物元数据缓存键
func artifactKey(captureID string) string {
	return fmt.Sprintf("capture:%s", captureID)
}

// SetCaptureRecordCache 缓存一条录制记录的元数据，供列表接口快速读取。
func SetCaptureRecordCache(rec *model.CaptureRecord, expiration time.Duration) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal capture record: %w", err)
	}

	key := artifactKey(rec.ID)
	if err := RedisClient.Set(ctx, key, data, expiration).Err(); err != nil {
		logger.Warn("设置录制记录缓存失败",
			logger.String("key", key),
			logger.ErrorField(err))
		return err
	}
	return nil
}

// GetCaptureRecordCache 读取缓存的录制记录，未命中返回 (nil, nil)。
func GetCaptureRecordCache(captureID string) (*model.CaptureRecord, error) {
	if RedisClient == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := RedisClient.Get(ctx, artifactKey(captureID)).Bytes()
	if err != nil {
		if err.Error() == "redis: nil" {
			return nil, nil
		}
		return nil, nil
	}

	var rec model.CaptureRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, nil
	}
	return &rec, nil
}
