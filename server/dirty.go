package server

import (
	"sync"

	"mazesync/protocol"
)

// DirtySet 两次 Tick 之间的位置缓冲：同一玩家只保留最后一次位置
type DirtySet struct {
	mu        sync.Mutex
	positions map[string]protocol.Vec2
}

func NewDirtySet() *DirtySet {
	return &DirtySet{positions: make(map[string]protocol.Vec2)}
}

func (d *DirtySet) Put(name string, p protocol.Vec2) {
	d.mu.Lock()
	d.positions[name] = p
	d.mu.Unlock()
}

// Delete 丢弃尚未发送的位置（玩家离开时）
func (d *DirtySet) Delete(name string) {
	d.mu.Lock()
	delete(d.positions, name)
	d.mu.Unlock()
}

// Drain 取走全部位置并清空；为空时返回 nil
func (d *DirtySet) Drain() map[string]protocol.Vec2 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.positions) == 0 {
		return nil
	}
	out := d.positions
	d.positions = make(map[string]protocol.Vec2, len(out))
	return out
}

func (d *DirtySet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.positions)
}
