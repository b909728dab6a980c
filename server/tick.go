package server

import "time"

const (
	// TicksPerSecond 房间推进频率（20 TPS）
	TicksPerSecond = 20
)

var tickInterval = time.Duration(1000/TicksPerSecond) * time.Millisecond // 50ms

// StartTicker 启动房间的 Tick 循环（单协程推进房间状态）
func (r *Room) StartTicker() {
	if r.tickerStarted {
		return
	}
	r.tickerStarted = true
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				r.closeAll()
				return
			case <-ticker.C:
			}
			// 核心循环：处理输入 → 广播变化
			start := time.Now()
			r.Step()
			r.metrics.AddTick(time.Since(start).Nanoseconds())
		}
	}()
}

// Step 推进一个 Tick；测试可直接调用
func (r *Room) Step() {
	r.BeginTick()
	r.ProcessInputs()
	r.BroadcastDelta()
}

// Stop 停止 Tick 循环并关闭所有连接
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

func (r *Room) closeAll() {
	for id, p := range r.Players {
		if p.Conn != nil {
			p.Conn.Close()
		}
		delete(r.Players, id)
	}
}
