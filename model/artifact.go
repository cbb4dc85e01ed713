package model

import "time"

// CaptureArtifact 一次录制完成后产出的媒体文件。
// 完成时所有权移交调用方，CaptureSession 不再保留。
type CaptureArtifact struct {
	Blob         []byte  `json:"-"`
	MimeType     string  `json:"mimeType"`
	DurationHint float64 `json:"durationHint"` // 秒，基于录制时长的估计值
}

// Empty 判断产物是否为空（未开始录制时 Stop 的返回值）。
func (a *CaptureArtifact) Empty() bool {
	return a == nil || len(a.Blob) == 0
}

// CaptureRecord 已完成录制的持久化记录
type CaptureRecord struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	SessionID   string    `json:"sessionId" gorm:"size:36;index"`
	MimeType    string    `json:"mimeType" gorm:"size:64"`
	Duration    float64   `json:"duration"`
	SizeBytes   int64     `json:"sizeBytes"`
	StoragePath string    `json:"storagePath" gorm:"size:255"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName GORM 表名
func (CaptureRecord) TableName() string {
	return "capture_records"
}

// ScenePreset 保存的场景预设：元素集合 + 激活的可视化算法。
// Elements 为 VisualElement 数组的 JSON 编码。
type ScenePreset struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	UserID     int64     `json:"userId" gorm:"index"`
	Name       string    `json:"name" gorm:"size:64"`
	Visualizer string    `json:"visualizer" gorm:"size:32"`
	Elements   string    `json:"elements" gorm:"type:mediumtext"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName GORM 表名
func (ScenePreset) TableName() string {
	return "scene_presets"
}
