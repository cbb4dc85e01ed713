package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"VizFM/config"
	"VizFM/logger"
	"VizFM/model"

	"github.com/minio/minio-go/v7"
)

// UploadArtifact 把一次录制的产物上传到 MinIO，返回对象路径。
// 核心只负责产出 CaptureArtifact，落到哪里由这一层决定。
func UploadArtifact(cfg *config.Config, captureID string, artifact *model.CaptureArtifact) (string, error) {
	client := GetMinioClient()
	if client == nil {
		return "", fmt.Errorf("MinIO client not initialized")
	}
	if artifact.Empty() {
		return "", fmt.Errorf("empty capture artifact")
	}

	objectPath := fmt.Sprintf("captures/%s.ts", captureID)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err := client.PutObject(ctx, cfg.MinioBucket, objectPath,
		bytes.NewReader(artifact.Blob), int64(len(artifact.Blob)),
		minio.PutObjectOptions{ContentType: artifact.MimeType})
	if err != nil {
		logger.Error("录制产物上传MinIO失败",
			logger.String("captureId", captureID),
			logger.ErrorField(err))
		return "", fmt.Errorf("上传录制产物失败: %w", err)
	}

	logger.Info("录制产物已上传",
		logger.String("captureId", captureID),
		logger.String("path", objectPath),
		logger.Int("size", len(artifact.Blob)))
	return objectPath, nil
}
