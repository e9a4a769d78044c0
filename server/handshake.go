package server

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mazesync/protocol"
)

// ErrHandshakeRejected 握手消息无法解析或名字不合法
var ErrHandshakeRejected = errors.New("handshake rejected")

type handshakeState int

const (
	stateAwaitingName handshakeState = iota
	stateNameCheck
	stateAccepted
	stateRejected
)

func (st handshakeState) String() string {
	switch st {
	case stateAwaitingName:
		return "awaiting_name"
	case stateNameCheck:
		return "name_check"
	case stateAccepted:
		return "accepted"
	case stateRejected:
		return "rejected"
	}
	return "unknown"
}

// handshake 为新连接协商唯一名字。
// 名字冲突时回复 err_name_taken 并在同一连接上等待下一次请求；
// 消息不合法时返回 ErrHandshakeRejected，由调用方关闭连接。
// 成功时名字已在 Registry 中占用，但会话尚未加入广播。
func (s *Server) handshake(conn Transport, log *zap.SugaredLogger) (*Session, error) {
	var (
		state = stateAwaitingName
		name  string
		sess  *Session
	)

	for {
		switch state {
		case stateAwaitingName:
			raw, err := conn.Read()
			if err != nil {
				return nil, fmt.Errorf("read connect request: %w", err)
			}
			msg, err := protocol.Parse(raw)
			if err != nil {
				log.Debugw("invalid handshake message", "error", err)
				state = stateRejected
				continue
			}
			req, ok := msg.(protocol.ConnectRequest)
			if !ok || strings.TrimSpace(req.Name) == "" {
				log.Debugw("unexpected handshake message", "msgType", msg.Type())
				state = stateRejected
				continue
			}
			name = req.Name
			state = stateNameCheck

		case stateNameCheck:
			var err error
			sess, err = s.registry.Reserve(name, conn)
			if errors.Is(err, ErrNameTaken) {
				s.metrics.IncNameCollisions()
				log.Infow("name taken", "name", name)
				if err := s.sendTo(conn, protocol.NameTaken{}); err != nil {
					return nil, err
				}
				state = stateAwaitingName
				continue
			}
			if err != nil {
				return nil, err
			}
			state = stateAccepted

		case stateAccepted:
			if err := s.sendTo(conn, protocol.AcceptConnection{}); err != nil {
				s.registry.Remove(sess)
				return nil, err
			}
			return sess, nil

		case stateRejected:
			s.metrics.IncHandshakeRejected()
			return nil, ErrHandshakeRejected
		}
	}
}

// sendTo 直接向尚未成为会话的连接发送服务端消息
func (s *Server) sendTo(conn Transport, m protocol.Message) error {
	b, err := protocol.Encode(protocol.ServerSource, m)
	if err != nil {
		return err
	}
	return conn.Send(b)
}
