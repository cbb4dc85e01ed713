package server

import (
	"encoding/json"
	"net/http"
	"time"

	"VizFM/core/vis"
	"VizFM/logger"
	"VizFM/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// SavePresetHandler 把一组元素和可视化算法存为当前用户的预设
func (h *APIHandler) SavePresetHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string                `json:"name"`
		Visualizer string                `json:"visualizer"`
		Elements   []model.VisualElement `json:"elements"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "preset name is required")
		return
	}

	elements, err := json.Marshal(req.Elements)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid elements")
		return
	}

	now := time.Now()
	preset := &model.ScenePreset{
		ID:         uuid.NewString(),
		UserID:     userIDFromContext(r.Context()),
		Name:       req.Name,
		Visualizer: req.Visualizer,
		Elements:   string(elements),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.presetRepo.Create(r.Context(), preset); err != nil {
		logger.Error("保存预设失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to save preset")
		return
	}
	respondJSON(w, http.StatusCreated, preset)
}

// ListPresetsHandler 列出当前用户的全部预设
func (h *APIHandler) ListPresetsHandler(w http.ResponseWriter, r *http.Request) {
	presets, err := h.presetRepo.ListByUser(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		logger.Error("查询预设失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to list presets")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"presets": presets,
	})
}

// DeletePresetHandler 删除一个预设
func (h *APIHandler) DeletePresetHandler(w http.ResponseWriter, r *http.Request) {
	presetID := mux.Vars(r)["presetId"]
	preset, err := h.presetRepo.GetByID(r.Context(), presetID)
	if err != nil || preset == nil {
		respondError(w, http.StatusNotFound, "preset not found")
		return
	}
	if preset.UserID != userIDFromContext(r.Context()) {
		respondError(w, http.StatusForbidden, "not your preset")
		return
	}
	if err := h.presetRepo.Delete(r.Context(), presetID); err != nil {
		logger.Error("删除预设失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to delete preset")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": presetID})
}

// ApplyPresetHandler 把预设应用到会话：切换可视化器并重建元素集合
func (h *APIHandler) ApplyPresetHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	presetID := mux.Vars(r)["presetId"]
	preset, err := h.presetRepo.GetByID(r.Context(), presetID)
	if err != nil || preset == nil {
		respondError(w, http.StatusNotFound, "preset not found")
		return
	}

	var elements []model.VisualElement
	if preset.Elements != "" {
		if err := json.Unmarshal([]byte(preset.Elements), &elements); err != nil {
			logger.Error("预设元素解码失败", logger.String("presetId", presetID), logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "corrupt preset")
			return
		}
	}

	// 先清空现有元素，再按预设重建
	for _, el := range s.Director.Elements() {
		s.Director.RemoveElement(el.ID)
	}
	if preset.Visualizer != "" {
		s.Director.SetVisualizer(preset.Visualizer, vis.Params{})
	}
	for _, el := range elements {
		s.Director.UpsertElement(el)
	}

	logger.Info("预设已应用",
		logger.String("sessionId", s.ID),
		logger.String("presetId", presetID),
		logger.Int("elements", len(elements)))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"visualizer": s.Director.ActiveVisualizer(),
		"elements":   len(elements),
	})
}
