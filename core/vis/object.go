package vis

import "VizFM/model"

// Material 渲染对象的外观属性，Animate 只允许原地修改。
type Material struct {
	Color    string  // CSS 十六进制色值，如 "#22ccff"
	Opacity  float64 // [0,1]
	Emissive float64 // 发光强度，音频响应主要作用在这里
}

// Object 可视化算法持有的场景对象句柄。
// Create 负责分配，Animate 只能修改 transform 和 material，
// 对象的增删始终由 SceneDirector 统一处理。
type Object struct {
	ID       string
	Kind     string // bar / point / line / ring / cell
	Position model.Vec3
	Rotation model.Vec3
	Scale    model.Vec3
	Material Material

	// 算法私有的基准值，Create 时写入，Animate 只读
	Base model.Vec3
	Seed float64
}

// Scene 可视化算法看到的最小场景接口，由 SceneDirector 实现。
type Scene interface {
	Width() int
	Height() int
}

// Params 可视化算法参数。Create/Animate 不得修改传入的 Params。
type Params struct {
	Count       int     // 对象数量（bars 数、粒子数等）
	Color       string
	Sensitivity float64 // 音频响应增益
}

// withDefaults 填充零值参数
func (p Params) withDefaults() Params {
	if p.Count <= 0 {
		p.Count = 32
	}
	if p.Color == "" {
		p.Color = "#22ccff"
	}
	if p.Sensitivity <= 0 {
		p.Sensitivity = 1.0
	}
	return p
}
