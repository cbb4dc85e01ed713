package vis

import (
	"sync"

	"VizFM/logger"
	"VizFM/model"
)

// DefaultID 未知可视化标识的回退项
const DefaultID = "bars"

// CreateFunc 分配一组场景对象。对同一可视化算法重复调用必须幂等：
// SceneDirector 保证在再次调用前已完整释放上一次的句柄。
type CreateFunc func(scene Scene, params Params) []*Object

// AnimateFunc 按当前音频帧驱动对象。复杂度 O(对象数)，
// 只能原地修改 transform/material，不得分配新的场景对象。
type AnimateFunc func(objects []*Object, frame *model.AudioFrame, elapsed float64, params Params, beat *model.BeatInfo)

// Visualizer 一个可插拔的可视化算法
type Visualizer struct {
	ID      string
	Create  CreateFunc
	Animate AnimateFunc
}

// Registry 可视化算法注册表。
// 激活哪个算法与场景如何被驱动解耦：换算法只是一次查表。
type Registry struct {
	mu   sync.RWMutex
	vis  map[string]*Visualizer
}

// NewRegistry 创建注册表并装入内置算法
func NewRegistry() *Registry {
	r := &Registry{vis: make(map[string]*Visualizer)}
	for _, v := range builtins() {
		r.Register(v)
	}
	return r
}

// Register 注册一个可视化算法，同名覆盖。
func (r *Registry) Register(v *Visualizer) {
	if v == nil || v.ID == "" || v.Create == nil || v.Animate == nil {
		logger.Warn("忽略不完整的可视化算法注册")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vis[v.ID] = v
}

// Lookup 按标识查找算法，未知标识回退到默认算法而不是报错。
func (r *Registry) Lookup(id string) *Visualizer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.vis[id]; ok {
		return v
	}
	logger.Debug("未知的可视化标识，回退默认", logger.String("id", id))
	return r.vis[DefaultID]
}

// IDs 返回全部已注册标识（无序）
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.vis))
	for id := range r.vis {
		ids = append(ids, id)
	}
	return ids
}
