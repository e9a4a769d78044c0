package server

import (
	"go.uber.org/zap"

	"mazesync/protocol"
)

// handleMessage 处理已注册会话的一条入站消息。非法消息只记录日志并丢弃。
func (s *Server) handleMessage(sess *Session, raw []byte, log *zap.SugaredLogger) {
	msg, err := protocol.Parse(raw)
	if err != nil {
		s.metrics.IncInvalidMessages()
		log.Debugw("dropping invalid message", "error", err)
		return
	}

	switch m := msg.(type) {
	case protocol.UpdatePos:
		// 位置不立即广播，等下一次 Tick 合并发送
		sess.SetPosition(m.Position)
		s.dirty.Put(sess.name, m.Position)

	case protocol.SetReady:
		sess.SetReady(m.Ready)
		b, err := protocol.Encode(sess.name, m)
		if err != nil {
			log.Errorw("encode set_ready", "error", err)
			return
		}
		s.router.Broadcast(b, sess)

	case protocol.ConnectRequest:
		log.Debugw("ignoring connect_request from registered session")

	case protocol.MazeLayout:
		// 迷宫由服务端生成，客户端上传的迷宫不采纳
		log.Debugw("ignoring client maze upload")

	case protocol.PositionBatch, protocol.AcceptConnection, protocol.NameTaken,
		protocol.PlayerConnected, protocol.PlayerDisconnected:
		log.Debugw("ignoring server-only message", "msgType", m.Type())

	default:
		log.Warnw("unhandled message kind", "msgType", msg.Type())
	}
}
