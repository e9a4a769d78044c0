package server

import (
	"fmt"

	"go.uber.org/multierr"
)

// Router 向所有广播成员扇出消息。
// 单个接收方失败不影响其它接收方，错误只记录日志与指标，不返回给调用方。
type Router struct {
	registry *Registry
	metrics  *Metrics
}

func NewRouter(registry *Registry, metrics *Metrics) *Router {
	return &Router{registry: registry, metrics: metrics}
}

// Broadcast 发送给除 exclude 以外的所有成员，返回发送失败的成员名
func (r *Router) Broadcast(msg []byte, exclude *Session) []string {
	return r.deliver(r.registry.Members(), msg, exclude)
}

func (r *Router) deliver(targets []*Session, msg []byte, exclude *Session) []string {
	var (
		errs   error
		failed []string
	)
	for _, s := range targets {
		if s == exclude {
			continue
		}
		if err := s.Send(msg); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("send to %s: %w", s.name, err))
			failed = append(failed, s.name)
		}
	}
	if errs != nil {
		if r.metrics != nil {
			r.metrics.AddSendFailures(len(failed))
		}
		Log.Warnw("broadcast partially failed", "failed", failed, "error", errs)
	}
	return failed
}
