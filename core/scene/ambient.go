package scene

import (
	"math"

	"VizFM/model"
)

// responseMultiplier 把元素配置的响应通道映射为强度乘数。
// 灯光强度和装饰元素运动共用同一套映射（见 applyAmbientMovement / 灯光驱动）。
func responseMultiplier(beat *model.BeatInfo, ch model.ResponseChannel) float64 {
	if beat == nil {
		return 0
	}
	switch ch {
	case model.RespondBass:
		return beat.BandStrength(model.BandBass)
	case model.RespondMid:
		return beat.BandStrength(model.BandMid)
	case model.RespondTreble:
		return beat.BandStrength(model.BandTreble)
	case model.RespondBeat:
		if beat.IsBeat {
			return 1
		}
		return 0
	default: // overall
		return beat.Strength
	}
}

// ambientParams 运动参数，未配置的字段落到默认值。
type ambientParams struct {
	speed        float64
	amplitude    float64
	frequency    float64
	bounceHeight float64
	responsive   bool
	channel      model.ResponseChannel
}

func ambientParamsOf(el *model.VisualElement) ambientParams {
	p := ambientParams{
		speed:        1,
		amplitude:    1,
		frequency:    1,
		bounceHeight: 1,
		responsive:   true,
		channel:      el.ResponseChannelOrDefault(),
	}
	c := &el.Customization
	if c.Speed != nil {
		p.speed = *c.Speed
	}
	if c.Amplitude != nil {
		p.amplitude = *c.Amplitude
	}
	if c.Frequency != nil {
		p.frequency = *c.Frequency
	}
	if c.BounceHeight != nil {
		p.bounceHeight = *c.BounceHeight
	}
	if c.Responsive != nil {
		p.responsive = *c.Responsive
	}
	return p
}

// applyAmbientMovement 按运动模式推进装饰元素的 transform。
// 每种模式是一条关于（elapsed, 基准振幅/速度/频率, 音频乘数）的封闭轨迹，
// 形状彼此独立，不可互换：
//
//	bounce — Y 为整流正弦（恒非负），X 叠加慢速正弦漂移
//	float  — XY 双正弦漂浮
//	fly    — XZ 平面圆周 + 垂直调制
//	rotate — 匀速自转
//	pulse  — 均匀缩放振荡
//
// base 为元素描述里的静止 transform；结果写入 pos/rot/scale。
func applyAmbientMovement(el *model.VisualElement, elapsed float64, beat *model.BeatInfo,
	pos, rot, scale *model.Vec3) {

	base := el.Position
	*pos = base
	*rot = el.Rotation
	*scale = el.Scale

	movement := model.MoveFloat
	if el.Customization.MovementType != nil {
		movement = *el.Customization.MovementType
	}
	p := ambientParamsOf(el)

	// 音频乘数：responsive 关闭时恒为 1
	mult := 1.0
	if p.responsive {
		mult = 1 + responseMultiplier(beat, p.channel)
	}

	t := elapsed * p.speed

	switch movement {
	case model.MoveBounce:
		pos.Y = base.Y + math.Abs(math.Sin(t*4))*p.bounceHeight*mult
		pos.X = base.X + math.Sin(t)*0.5

	case model.MoveFloat:
		pos.Y = base.Y + math.Sin(t*p.frequency)*p.amplitude*mult
		pos.X = base.X + math.Cos(t*p.frequency*0.7)*p.amplitude*0.5*mult

	case model.MoveFly:
		radius := 3 * p.amplitude
		pos.X = base.X + math.Cos(t)*radius
		pos.Z = base.Z + math.Sin(t)*radius
		pos.Y = base.Y + math.Sin(t*2)*p.amplitude*0.4*mult

	case model.MoveRotate:
		rot.Y = el.Rotation.Y + t
		rot.X = el.Rotation.X + t*0.3

	case model.MovePulse:
		f := 1 + math.Sin(t*2)*0.25*mult
		if f < 0.05 {
			f = 0.05
		}
		scale.X = el.Scale.X * f
		scale.Y = el.Scale.Y * f
		scale.Z = el.Scale.Z * f
	}
}
