package protocol

import "mazesync/maze"

// Message 封闭的消息联合类型：每种 msgType 对应一个具体结构体。
// 处理方用 type switch 分派。
type Message interface {
	Type() Type
	payload() any
}

// ConnectRequest 握手：提议显示名
type ConnectRequest struct{ Name string }

// AcceptConnection 握手成功
type AcceptConnection struct{}

// NameTaken 名字已被占用，客户端可在同一连接上重试
type NameTaken struct{}

// MazeLayout 迷宫矩阵 [行][列]
type MazeLayout struct{ Cells [][]maze.Cell }

// UpdatePos 客户端上报的单个位置
type UpdatePos struct{ Position Vec2 }

// PositionBatch 服务端每个 Tick 合并后的位置表 name -> position
type PositionBatch struct{ Positions map[string]Vec2 }

// SetReady 准备状态切换
type SetReady struct{ Ready bool }

// PlayerConnected 玩家加入或名单回放；Player 可以为空
type PlayerConnected struct{ Player *PlayerInfo }

// PlayerDisconnected 玩家离开
type PlayerDisconnected struct{}

func (ConnectRequest) Type() Type     { return TypeConnectRequest }
func (AcceptConnection) Type() Type   { return TypeAcceptConnection }
func (NameTaken) Type() Type          { return TypeErrNameTaken }
func (MazeLayout) Type() Type         { return TypeMaze }
func (UpdatePos) Type() Type          { return TypeUpdatePos }
func (PositionBatch) Type() Type      { return TypeUpdatePos }
func (SetReady) Type() Type           { return TypeSetReady }
func (PlayerConnected) Type() Type    { return TypePlayerConnected }
func (PlayerDisconnected) Type() Type { return TypePlayerDisconnected }

func (m ConnectRequest) payload() any   { return m.Name }
func (AcceptConnection) payload() any   { return nil }
func (NameTaken) payload() any          { return nil }
func (m MazeLayout) payload() any       { return m.Cells }
func (m UpdatePos) payload() any        { return m.Position }
func (m PositionBatch) payload() any    { return m.Positions }
func (m SetReady) payload() any         { return m.Ready }
func (PlayerDisconnected) payload() any { return nil }

func (m PlayerConnected) payload() any {
	if m.Player == nil {
		return nil
	}
	return m.Player
}
