package client

import "math"

// Interpolator 每个渲染 Tick 把 Render 坐标向 Target 推进
// 指数逼近：每次缩短剩余距离的 Lerp 比例；两轴都进入 Snap 阈值后直接对齐
type Interpolator struct {
	Lerp float64
	Snap float64
}

// NewInterpolator 使用配置中的插值参数
func NewInterpolator(cfg Config) Interpolator {
	return Interpolator{Lerp: cfg.LerpFactor, Snap: cfg.SnapThreshold}
}

// Advance 推进单个角色；返回推进后的坐标
func (ip Interpolator) Advance(render, target Vec2) Vec2 {
	dx := target.X - render.X
	dy := target.Y - render.Y
	if math.Abs(dx) > ip.Snap || math.Abs(dy) > ip.Snap {
		return Vec2{X: render.X + dx*ip.Lerp, Y: render.Y + dy*ip.Lerp}
	}
	return target
}

// Step 推进注册表中全部角色，返回按 id 排序的渲染状态
// Direction/IsMoving 原样使用最新值
func (ip Interpolator) Step(reg *Registry) []RenderState {
	ids := reg.ids()
	out := make([]RenderState, 0, len(ids))
	for _, id := range ids {
		a := reg.actors[id]
		a.Render = ip.Advance(a.Render, a.Target)
		out = append(out, RenderState{
			ID:        a.ID,
			Name:      a.DisplayName,
			X:         a.Render.X,
			Y:         a.Render.Y,
			Direction: a.Direction,
			IsMoving:  a.IsMoving,
		})
	}
	return out
}

// ticksToConverge 从距离 dist（单轴最大偏差）收敛到精确相等所需的 Tick 上界
func (ip Interpolator) ticksToConverge(dist float64) int {
	dist = math.Abs(dist)
	if dist <= ip.Snap {
		if dist == 0 {
			return 0
		}
		return 1
	}
	// dist * (1-lerp)^n <= snap 之后再一次吸附
	n := math.Ceil(math.Log(ip.Snap/dist) / math.Log(1-ip.Lerp))
	return int(n) + 1
}
