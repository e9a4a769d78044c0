package server

import (
	"errors"
	"sort"
	"sync"
)

var ErrNameTaken = errors.New("name already taken")

// Registry 按名字管理会话。
// names 包含握手已通过但尚未加入广播的会话，用于名字唯一性检查；
// members 为参与广播的会话。所有修改都在同一把锁内完成。
type Registry struct {
	mu      sync.RWMutex
	names   map[string]*Session
	members map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		names:   make(map[string]*Session),
		members: make(map[string]*Session),
	}
}

// Reserve 原子地检查名字并占用，返回尚未加入广播的会话
func (r *Registry) Reserve(name string, conn Transport) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.names[name]; taken {
		return nil, ErrNameTaken
	}
	s := newSession(name, conn)
	r.names[name] = s
	return s, nil
}

// Join 把已占用名字的会话加入广播成员。
// onJoin 在锁内以加入前的成员列表调用，用于发送名单与加入通知，
// 因此新成员不会收到关于自己的通知，并发加入的双方也能互相看到。
// onJoin 内只能做非阻塞发送，不能再访问 Registry。
func (r *Registry) Join(s *Session, onJoin func(existing []*Session)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names[s.name] != s {
		return false
	}
	if onJoin != nil {
		onJoin(sortedSessions(r.members))
	}
	r.members[s.name] = s
	return true
}

// Remove 释放会话占用的名字；返回该会话是否曾是广播成员
func (r *Registry) Remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names[s.name] != s {
		return false
	}
	delete(r.names, s.name)
	if r.members[s.name] == s {
		delete(r.members, s.name)
		return true
	}
	return false
}

// Lookup 查找广播成员
func (r *Registry) Lookup(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.members[name]
	return s, ok
}

// Taken 名字是否已被占用（包括握手中的会话）
func (r *Registry) Taken(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Members 按名字排序的成员快照
func (r *Registry) Members() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedSessions(r.members)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func sortedSessions(m map[string]*Session) []*Session {
	out := make([]*Session, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
