package server

import (
	"sync/atomic"
	"time"
)

// Metrics 记录服务运行期的关键指标（用于监控与调试）
type Metrics struct {
	TickCount         int64 // Tick 次数
	TotalTickNs       int64 // Tick 累计耗时（纳秒）
	Flushes           int64 // 发出的位置批量广播次数
	PositionsFlushed  int64 // 批量广播中的位置条目总数
	Joins             int64
	Leaves            int64
	NameCollisions    int64 // 握手时名字冲突次数
	HandshakeRejected int64 // 握手消息不合法被关闭的连接数
	InvalidMessages   int64 // 注册后收到并丢弃的非法消息
	SendFailures      int64 // 广播中单个接收方发送失败次数
	MazesGenerated    int64
}

func (m *Metrics) IncJoins()             { atomic.AddInt64(&m.Joins, 1) }
func (m *Metrics) IncLeaves()            { atomic.AddInt64(&m.Leaves, 1) }
func (m *Metrics) IncNameCollisions()    { atomic.AddInt64(&m.NameCollisions, 1) }
func (m *Metrics) IncHandshakeRejected() { atomic.AddInt64(&m.HandshakeRejected, 1) }
func (m *Metrics) IncInvalidMessages()   { atomic.AddInt64(&m.InvalidMessages, 1) }
func (m *Metrics) IncMazesGenerated()    { atomic.AddInt64(&m.MazesGenerated, 1) }
func (m *Metrics) AddSendFailures(n int) { atomic.AddInt64(&m.SendFailures, int64(n)) }

func (m *Metrics) AddFlush(positions int) {
	atomic.AddInt64(&m.Flushes, 1)
	atomic.AddInt64(&m.PositionsFlushed, int64(positions))
}

func (m *Metrics) AddTick(d time.Duration) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, d.Nanoseconds())
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":         tick,
		"avg_tick_ms":        avgMs,
		"flushes":            atomic.LoadInt64(&m.Flushes),
		"positions_flushed":  atomic.LoadInt64(&m.PositionsFlushed),
		"joins":              atomic.LoadInt64(&m.Joins),
		"leaves":             atomic.LoadInt64(&m.Leaves),
		"name_collisions":    atomic.LoadInt64(&m.NameCollisions),
		"handshake_rejected": atomic.LoadInt64(&m.HandshakeRejected),
		"invalid_messages":   atomic.LoadInt64(&m.InvalidMessages),
		"send_failures":      atomic.LoadInt64(&m.SendFailures),
		"mazes_generated":    atomic.LoadInt64(&m.MazesGenerated),
	}
}
