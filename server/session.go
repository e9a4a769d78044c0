package server

import (
	"sync"

	"mazesync/protocol"
)

// Transport 单个客户端的双向消息通道。
// Send 必须是非阻塞且并发安全的，同一连接上的消息保持先进先出。
// SendBatch 把多条消息作为整体入队：要么全部入队，要么全部不入队。
type Transport interface {
	Read() ([]byte, error)
	Send(msg []byte) error
	SendBatch(msgs [][]byte) error
	Close() error
	RemoteAddr() string
}

// Session 已命名的在线玩家；发送句柄只由会话持有
type Session struct {
	name string
	conn Transport

	mu       sync.Mutex
	position protocol.Vec2
	ready    bool
}

func newSession(name string, conn Transport) *Session {
	return &Session{name: name, conn: conn}
}

func (s *Session) Name() string { return s.name }

// Send 写入会话的发送队列
func (s *Session) Send(msg []byte) error {
	return s.conn.Send(msg)
}

// SendBatch 整体写入发送队列，用于加入时的迷宫与名单
func (s *Session) SendBatch(msgs [][]byte) error {
	return s.conn.SendBatch(msgs)
}

func (s *Session) Position() protocol.Vec2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *Session) SetPosition(p protocol.Vec2) {
	s.mu.Lock()
	s.position = p
	s.mu.Unlock()
}

func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Session) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// Snapshot 生成发送给客户端的玩家信息
func (s *Session) Snapshot() protocol.PlayerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.PlayerInfo{Name: s.name, Position: s.position, Ready: s.ready}
}
