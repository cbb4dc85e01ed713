package server

import (
	"errors"
	"net/http"
	"time"

	"VizFM/cache"
	"VizFM/core/capture"
	"VizFM/logger"
	"VizFM/model"
	"VizFM/storage"

	"github.com/google/uuid"
)

// StartCaptureHandler 开始录制会话画面和已处理音频
func (h *APIHandler) StartCaptureHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	if err := s.StartCapture(); err != nil {
		switch {
		case errors.Is(err, capture.ErrAlreadyRecording):
			respondError(w, http.StatusConflict, "capture already in progress")
		case errors.Is(err, capture.ErrCaptureUnavailable):
			respondError(w, http.StatusUnprocessableEntity, "scene surface not available")
		default:
			logger.Error("启动录制失败", logger.String("sessionId", s.ID), logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "failed to start capture")
		}
		return
	}

	logger.Info("录制已开始", logger.String("sessionId", s.ID))
	respondJSON(w, http.StatusOK, map[string]string{"status": "recording"})
}

// StopCaptureHandler 结束录制，把产物上传到 MinIO 并写入录制记录
func (h *APIHandler) StopCaptureHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	artifact, err := s.StopCapture()
	if err != nil {
		// 编码器出错时仍可能拿到部分产物，有内容就继续入库
		logger.Warn("录制结束时编码器报错", logger.String("sessionId", s.ID), logger.ErrorField(err))
	}
	if artifact.Empty() {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status": "idle",
			"empty":  true,
		})
		return
	}

	captureID := uuid.NewString()
	path, err := storage.UploadArtifact(h.cfg, captureID, artifact)
	if err != nil {
		logger.Error("上传录制产物失败", logger.String("captureId", captureID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to store capture")
		return
	}

	rec := &model.CaptureRecord{
		ID:          captureID,
		SessionID:   s.ID,
		MimeType:    artifact.MimeType,
		Duration:    artifact.DurationHint,
		SizeBytes:   int64(len(artifact.Blob)),
		StoragePath: path,
		CreatedAt:   time.Now(),
	}
	if err := h.captureRepo.Create(r.Context(), rec); err != nil {
		logger.Error("写入录制记录失败", logger.String("captureId", captureID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to record capture")
		return
	}
	if err := cache.SetCaptureRecordCache(rec, 24*time.Hour); err != nil {
		logger.Warn("写入录制缓存失败", logger.ErrorField(err))
	}

	logger.Info("录制已完成",
		logger.String("captureId", captureID),
		logger.String("mimeType", artifact.MimeType),
		logger.Int64("sizeBytes", rec.SizeBytes))
	respondJSON(w, http.StatusOK, rec)
}

// ListCapturesHandler 列出会话的历史录制记录
func (h *APIHandler) ListCapturesHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	records, err := h.captureRepo.ListBySession(r.Context(), s.ID)
	if err != nil {
		logger.Error("查询录制记录失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to list captures")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"captures": records,
	})
}
