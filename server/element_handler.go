package server

import (
	"encoding/json"
	"net/http"

	"VizFM/model"

	"github.com/gorilla/mux"
)

// ListElementsHandler 列出会话中的全部场景元素
func (h *APIHandler) ListElementsHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"elements": s.Director.Elements(),
	})
}

// UpsertElementHandler 创建或整体替换一个场景元素
func (h *APIHandler) UpsertElementHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	var el model.VisualElement
	if err := json.NewDecoder(r.Body).Decode(&el); err != nil {
		respondError(w, http.StatusBadRequest, "invalid element body")
		return
	}
	if el.ID == "" || el.Type == "" {
		respondError(w, http.StatusBadRequest, "element id and type are required")
		return
	}

	s.Director.UpsertElement(el)
	respondJSON(w, http.StatusOK, map[string]string{"id": el.ID})
}

// MergeElementHandler 对元素配置做部分更新，未提交的字段保持不变
func (h *APIHandler) MergeElementHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	var patch model.Customization
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid customization body")
		return
	}

	elementID := mux.Vars(r)["elementId"]
	if !s.Director.MergeCustomization(elementID, &patch) {
		respondError(w, http.StatusNotFound, "element not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": elementID})
}

// ElementVisibilityHandler 切换元素可见性，隐藏保留配置
func (h *APIHandler) ElementVisibilityHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	var req struct {
		Visible bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	elementID := mux.Vars(r)["elementId"]
	if !s.Director.SetElementVisible(elementID, req.Visible) {
		respondError(w, http.StatusNotFound, "element not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":      elementID,
		"visible": req.Visible,
	})
}

// RemoveElementHandler 移除元素及其渲染对象
func (h *APIHandler) RemoveElementHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	elementID := mux.Vars(r)["elementId"]
	s.Director.RemoveElement(elementID)
	respondJSON(w, http.StatusOK, map[string]string{"id": elementID})
}
