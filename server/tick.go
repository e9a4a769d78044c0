package server

import (
	"context"
	"time"

	"mazesync/protocol"
)

// DefaultTickRate 世界推进频率（20 TPS）
const DefaultTickRate = 20

// GameLoop 固定频率循环：每个 Tick 执行 work，测量耗时后只睡剩余预算
type GameLoop struct {
	interval time.Duration
	work     func()
	metrics  *Metrics

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewGameLoop(ticksPerSecond int, work func(), metrics *Metrics) *GameLoop {
	if ticksPerSecond <= 0 {
		ticksPerSecond = DefaultTickRate
	}
	return &GameLoop{
		interval: time.Second / time.Duration(ticksPerSecond),
		work:     work,
		metrics:  metrics,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

func (l *GameLoop) Interval() time.Duration { return l.interval }

// Run 在每次迭代开始检查 ctx；进行中的 Tick 不会被打断
func (l *GameLoop) Run(ctx context.Context) {
	for ctx.Err() == nil {
		start := l.now()
		l.work()
		elapsed := l.now().Sub(start)
		if l.metrics != nil {
			l.metrics.AddTick(elapsed)
		}
		l.sleep(ctx, sleepBudget(l.interval, elapsed))
	}
}

// sleepBudget 剩余的 Tick 预算，不小于 0
func sleepBudget(interval, elapsed time.Duration) time.Duration {
	if d := interval - elapsed; d > 0 {
		return d
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// flushPositions 把本 Tick 累积的位置合并成一条 update_pos 发给所有人（包括移动者）
func (s *Server) flushPositions() {
	positions := s.dirty.Drain()
	if len(positions) == 0 {
		return
	}
	b, err := protocol.Encode(protocol.ServerSource, protocol.PositionBatch{Positions: positions})
	if err != nil {
		Log.Errorw("encode position batch", "error", err)
		return
	}
	s.router.Broadcast(b, nil)
	s.metrics.AddFlush(len(positions))
}
