package model

import "encoding/json"

// ElementType 场景元素类型
type ElementType string

const (
	ElementBackground     ElementType = "background"
	ElementParticle       ElementType = "particle"
	ElementLight          ElementType = "light"
	ElementGrid           ElementType = "grid"
	ElementWave           ElementType = "wave"
	ElementShape          ElementType = "shape"
	ElementAmbient        ElementType = "ambient"
	ElementText           ElementType = "text"
	ElementImage          ElementType = "image"
	ElementIcon           ElementType = "icon"
	ElementParticleSystem ElementType = "particleSystem"
	ElementOverlay        ElementType = "overlay"
	ElementFrame          ElementType = "frame"
)

// ResponseChannel 元素对音频的响应通道
type ResponseChannel string

const (
	RespondBass    ResponseChannel = "bass"
	RespondMid     ResponseChannel = "mid"
	RespondTreble  ResponseChannel = "treble"
	RespondBeat    ResponseChannel = "beat"
	RespondOverall ResponseChannel = "overall"
)

// MovementType 装饰元素的运动模式
type MovementType string

const (
	MoveBounce MovementType = "bounce"
	MoveFloat  MovementType = "float"
	MoveFly    MovementType = "fly"
	MoveRotate MovementType = "rotate"
	MovePulse  MovementType = "pulse"
)

// Vec3 三维向量
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Customization 元素的外观与音频响应配置。
// 指针字段区分"未设置"与零值，支持部分更新的合并语义。
type Customization struct {
	Color        *string          `json:"color,omitempty"`
	Opacity      *float64         `json:"opacity,omitempty"`
	Intensity    *float64         `json:"intensity,omitempty"`
	ResponseTo   *ResponseChannel `json:"responseTo,omitempty"`
	Responsive   *bool            `json:"responsive,omitempty"`
	MovementType *MovementType    `json:"movementType,omitempty"`
	Speed        *float64         `json:"speed,omitempty"`
	BounceHeight *float64         `json:"bounceHeight,omitempty"`
	Amplitude    *float64         `json:"amplitude,omitempty"`
	Frequency    *float64         `json:"frequency,omitempty"`
	Size         *float64         `json:"size,omitempty"`
	Text         *string          `json:"text,omitempty"`
	ImageURL     *string          `json:"imageUrl,omitempty"`
	// 类型特有的其余字段，原样保留供可视化算法读取
	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

// Merge 将部分更新合并进当前配置，未设置的字段保持不变。
func (c *Customization) Merge(patch *Customization) {
	if patch == nil {
		return
	}
	if patch.Color != nil {
		c.Color = patch.Color
	}
	if patch.Opacity != nil {
		c.Opacity = patch.Opacity
	}
	if patch.Intensity != nil {
		c.Intensity = patch.Intensity
	}
	if patch.ResponseTo != nil {
		c.ResponseTo = patch.ResponseTo
	}
	if patch.Responsive != nil {
		c.Responsive = patch.Responsive
	}
	if patch.MovementType != nil {
		c.MovementType = patch.MovementType
	}
	if patch.Speed != nil {
		c.Speed = patch.Speed
	}
	if patch.BounceHeight != nil {
		c.BounceHeight = patch.BounceHeight
	}
	if patch.Amplitude != nil {
		c.Amplitude = patch.Amplitude
	}
	if patch.Frequency != nil {
		c.Frequency = patch.Frequency
	}
	if patch.Size != nil {
		c.Size = patch.Size
	}
	if patch.Text != nil {
		c.Text = patch.Text
	}
	if patch.ImageURL != nil {
		c.ImageURL = patch.ImageURL
	}
	for k, v := range patch.Extra {
		if c.Extra == nil {
			c.Extra = make(map[string]json.RawMessage)
		}
		c.Extra[k] = v
	}
}

// VisualElement 场景元素描述。
// 描述由外部配置层持有，SceneDirector 只按 ID 镜像出对应的渲染对象。
type VisualElement struct {
	ID            string        `json:"id"`
	Type          ElementType   `json:"type"`
	Visible       bool          `json:"visible"`
	Position      Vec3          `json:"position"`
	Rotation      Vec3          `json:"rotation"`
	Scale         Vec3          `json:"scale"`
	Customization Customization `json:"customization"`
}

// ResponseChannelOrDefault 返回元素配置的响应通道，未配置时为 overall。
func (e *VisualElement) ResponseChannelOrDefault() ResponseChannel {
	if e.Customization.ResponseTo != nil {
		return *e.Customization.ResponseTo
	}
	return RespondOverall
}
