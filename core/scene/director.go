package scene

import (
	"sync"

	"VizFM/core/analysis"
	"VizFM/core/vis"
	"VizFM/logger"
	"VizFM/model"
)

// Light 灯光的实时句柄，强度每帧由音频驱动。
type Light struct {
	ID            string
	Color         string
	BaseIntensity float64
	Intensity     float64
}

// Director 场景导演：持有渲染表面、背景、灯光、装饰元素，
// 每帧消费分析引擎的输出并驱动激活的可视化算法。
//
// 元素"描述"（model.VisualElement）由外部配置层持有，
// Director 只按 ID 镜像出实时渲染对象；描述变化时先完整释放
// 受影响范围的旧对象再重建，不留孤儿句柄。
type Director struct {
	mu       sync.Mutex
	engine   *analysis.Engine
	registry *vis.Registry
	surface  *Surface

	background string
	elements   map[string]*model.VisualElement
	order      []string // 元素渲染顺序（按加入顺序）

	lights         map[string]*Light
	ambientObjects map[string]*vis.Object

	activeVisID string
	visParams   vis.Params
	visObjects  []*vis.Object

	elapsed    float64
	sceneReady bool

	lastBeat model.BeatInfo // 最近一帧的节拍快照，供状态推送层读取
}

// NewDirector 创建场景导演
func NewDirector(engine *analysis.Engine, registry *vis.Registry, surface *Surface) *Director {
	d := &Director{
		engine:         engine,
		registry:       registry,
		surface:        surface,
		background:     "#060810",
		elements:       make(map[string]*model.VisualElement),
		lights:         make(map[string]*Light),
		ambientObjects: make(map[string]*vis.Object),
		activeVisID:    vis.DefaultID,
	}
	d.rebuildVisualizerLocked()
	d.sceneReady = true
	return d
}

// Width 实现 vis.Scene
func (d *Director) Width() int { return d.surface.Width() }

// Height 实现 vis.Scene
func (d *Director) Height() int { return d.surface.Height() }

// SetBackground 设置背景色
func (d *Director) SetBackground(hex string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.background = hex
}

// Surface 返回渲染表面句柄
func (d *Director) Surface() *Surface {
	return d.surface
}

// Elapsed 动画相位（秒）。Resize 等尺寸变化不会重置它。
func (d *Director) Elapsed() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elapsed
}

// SetVisualizer 切换激活的可视化算法。
// 先完整释放旧算法的全部对象句柄，再调用新算法的 Create。
func (d *Director) SetVisualizer(id string, params vis.Params) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.activeVisID = id
	d.visParams = params
	d.rebuildVisualizerLocked()
}

// ActiveVisualizer 当前激活的算法标识（已解析回退）。
func (d *Director) ActiveVisualizer() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v := d.registry.Lookup(d.activeVisID); v != nil {
		return v.ID
	}
	return d.activeVisID
}

func (d *Director) rebuildVisualizerLocked() {
	// 释放旧句柄：清空引用即完成释放，注册表契约保证 Create 可以安全重建
	d.visObjects = nil
	v := d.registry.Lookup(d.activeVisID)
	if v == nil {
		return
	}
	d.visObjects = v.Create(d, d.visParams)
	logger.Debug("可视化算法已重建",
		logger.String("id", v.ID),
		logger.Int("objects", len(d.visObjects)))
}

// UpsertElement 添加或整体替换一个元素描述，并重建其实时对象。
func (d *Director) UpsertElement(el model.VisualElement) {
	if el.ID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.elements[el.ID]; !exists {
		d.order = append(d.order, el.ID)
	}
	stored := el
	d.elements[el.ID] = &stored
	d.rebuildElementLocked(el.ID)
}

// MergeCustomization 合并一次部分配置更新（merge 语义），并重建该元素。
func (d *Director) MergeCustomization(id string, patch *model.Customization) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	if !ok {
		return false
	}
	el.Customization.Merge(patch)
	d.rebuildElementLocked(id)
	return true
}

// SetElementVisible 切换元素可见性
func (d *Director) SetElementVisible(id string, visible bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	if !ok {
		return false
	}
	el.Visible = visible
	d.rebuildElementLocked(id)
	return true
}

// RemoveElement 移除元素及其实时对象
func (d *Director) RemoveElement(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.elements[id]; !ok {
		return
	}
	delete(d.elements, id)
	delete(d.lights, id)
	delete(d.ambientObjects, id)
	for i, eid := range d.order {
		if eid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Elements 返回元素描述的快照
func (d *Director) Elements() []model.VisualElement {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.VisualElement, 0, len(d.order))
	for _, id := range d.order {
		if el, ok := d.elements[id]; ok {
			out = append(out, *el)
		}
	}
	return out
}

// rebuildElementLocked 释放并按当前描述重建一个元素的实时对象。
// 局部更新同样走完整的"先释放后重建"，避免遗留孤儿对象。
func (d *Director) rebuildElementLocked(id string) {
	delete(d.lights, id)
	delete(d.ambientObjects, id)

	el, ok := d.elements[id]
	if !ok || !el.Visible {
		return
	}

	switch el.Type {
	case model.ElementLight:
		intensity := 1.0
		if el.Customization.Intensity != nil {
			intensity = *el.Customization.Intensity
		}
		color := "#ffffff"
		if el.Customization.Color != nil {
			color = *el.Customization.Color
		}
		d.lights[id] = &Light{
			ID:            id,
			Color:         color,
			BaseIntensity: intensity,
			Intensity:     intensity,
		}

	default:
		// 其余类型统一镜像成一个渲染对象，细节由 customization 决定
		obj := &vis.Object{
			ID:       id,
			Kind:     string(el.Type),
			Position: el.Position,
			Rotation: el.Rotation,
			Scale:    el.Scale,
			Base:     el.Position,
			Material: vis.Material{Color: "#ffffff", Opacity: 1},
		}
		if el.Customization.Color != nil {
			obj.Material.Color = *el.Customization.Color
		}
		if el.Customization.Opacity != nil {
			obj.Material.Opacity = *el.Customization.Opacity
		}
		d.ambientObjects[id] = obj
	}
}

// ObjectCount 场景中实时对象总数（测试可视化切换无残留用）。
func (d *Director) ObjectCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.visObjects) + len(d.ambientObjects) + len(d.lights)
}

// LightIntensity 读取灯光当前强度
func (d *Director) LightIntensity(id string) (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.lights[id]
	if !ok {
		return 0, false
	}
	return l.Intensity, true
}

// Resize 调整渲染表面尺寸，动画相位保持不变。
func (d *Director) Resize(width, height int) {
	d.surface.Resize(width, height)
}

// Step 推进一帧。稳态帧流程：
//  1. 从分析引擎拉取 (AudioFrame, BeatInfo)
//  2. 按 responseTo 驱动可见灯光强度
//  3. 调用激活算法的 Animate
//  4. 推进可见装饰元素的运动
//  5. 渲染
//
// 表面不可用（未就绪/已销毁）时整帧 no-op 而不是报错。
func (d *Director) Step(dt float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.sceneReady || d.surface == nil || d.surface.Destroyed() {
		return
	}

	d.elapsed += dt

	frame, beat := d.engine.Tick()

	// Tick 的返回是原地覆盖的快照，推送层要跨帧读取，这里留一份拷贝
	d.lastBeat.IsBeat = beat.IsBeat
	d.lastBeat.Strength = beat.Strength
	if d.lastBeat.BandStrengths == nil {
		d.lastBeat.BandStrengths = make(map[model.Band]float64, len(beat.BandStrengths))
	}
	for k, v := range beat.BandStrengths {
		d.lastBeat.BandStrengths[k] = v
	}

	// 灯光：音频驱动的强度乘数
	for id, l := range d.lights {
		el := d.elements[id]
		if el == nil || !el.Visible {
			continue
		}
		mult := 1 + responseMultiplier(beat, el.ResponseChannelOrDefault())
		l.Intensity = l.BaseIntensity * mult
	}

	// 激活的可视化算法
	if v := d.registry.Lookup(d.activeVisID); v != nil && len(d.visObjects) > 0 {
		v.Animate(d.visObjects, frame, d.elapsed, d.visParams, beat)
	}

	// 装饰元素运动
	for id, obj := range d.ambientObjects {
		el := d.elements[id]
		if el == nil || !el.Visible {
			continue
		}
		if el.Type == model.ElementAmbient {
			applyAmbientMovement(el, d.elapsed, beat, &obj.Position, &obj.Rotation, &obj.Scale)
		}
		// 非 ambient 元素的 emissive 同样响应音频
		obj.Material.Emissive = responseMultiplier(beat, el.ResponseChannelOrDefault())
	}

	d.renderLocked()
}

// renderLocked 收集全部可见对象并交给表面光栅化。
func (d *Director) renderLocked() {
	objs := make([]*vis.Object, 0, len(d.visObjects)+len(d.ambientObjects))
	objs = append(objs, d.visObjects...)
	for _, id := range d.order {
		if obj, ok := d.ambientObjects[id]; ok {
			objs = append(objs, obj)
		}
	}
	d.surface.Render(d.background, objs)
}

// LastBeat 最近一帧的节拍快照（独立拷贝，可安全跨帧持有）。
func (d *Director) LastBeat() model.BeatInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := model.BeatInfo{
		IsBeat:        d.lastBeat.IsBeat,
		Strength:      d.lastBeat.Strength,
		BandStrengths: make(map[model.Band]float64, len(d.lastBeat.BandStrengths)),
	}
	for k, v := range d.lastBeat.BandStrengths {
		out.BandStrengths[k] = v
	}
	return out
}

// Teardown 标记场景不可用并销毁表面，之后所有帧操作都是 no-op。
func (d *Director) Teardown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sceneReady = false
	d.visObjects = nil
	if d.surface != nil {
		d.surface.Destroy()
	}
}
