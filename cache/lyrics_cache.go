package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"VizFM/logger"
	"VizFM/model"
)

// lyricsKey 按音轨 URL 生成歌词缓存键
func lyricsKey(trackURL string) string {
	return fmt.Sprintf("lyrics:%s", trackURL)
}

// SetLyricsCache 缓存一条音轨的已解码歌词文档
func SetLyricsCache(trackURL string, doc *model.LyricsDocument, expiration time.Duration) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal lyrics document: %w", err)
	}

	key := lyricsKey(trackURL)
	if err := RedisClient.Set(ctx, key, data, expiration).Err(); err != nil {
		logger.Error("设置歌词缓存失败",
			logger.String("key", key),
			logger.ErrorField(err))
		return err
	}

	logger.Debug("歌词缓存设置成功",
		logger.String("key", key),
		logger.Int("dataSize", len(data)))
	return nil
}

// GetLyricsCache 获取缓存的歌词文档。
// 缓存未命中或 Redis 出错都返回 (nil, nil)，调用方回退到重新解码。
func GetLyricsCache(trackURL string) (*model.LyricsDocument, error) {
	if RedisClient == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := lyricsKey(trackURL)
	data, err := RedisClient.Get(ctx, key).Bytes()
	if err != nil {
		if err.Error() == "redis: nil" {
			logger.Debug("歌词缓存不存在", logger.String("key", key))
			return nil, nil
		}
		logger.Warn("获取歌词缓存失败，回退重新解码",
			logger.String("key", key),
			logger.ErrorField(err))
		return nil, nil
	}

	var doc model.LyricsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn("歌词缓存数据损坏，删除后回退",
			logger.String("key", key),
			logger.ErrorField(err))
		RedisClient.Del(ctx, key)
		return nil, nil
	}
	return &doc, nil
}

// DeleteLyricsCache 删除一条音轨的歌词缓存
func DeleteLyricsCache(trackURL string) error {
	if RedisClient == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return RedisClient.Del(ctx, lyricsKey(trackURL)).Err()
}
