package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"mazesync/maze"
)

// ServerSource 服务端自身发出的消息（迷宫、位置批量等）使用的 source
const ServerSource = ""

var (
	ErrMalformed      = errors.New("malformed message")
	ErrUnknownType    = errors.New("unknown msgType")
	ErrMissingData    = errors.New("missing data")
	ErrInvalidPayload = errors.New("invalid data payload")
)

// Frame 解码后的完整消息
type Frame struct {
	Source  string
	Message Message
}

// outbound 服务端 -> 客户端的线上结构；data 为空时整个字段省略
type outbound struct {
	MsgType Type            `json:"msgType"`
	Source  string          `json:"source"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Build 序列化一条消息。data 为 nil 时不输出 data 字段。
func Build(source string, t Type, data any) ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	msg := outbound{MsgType: t, Source: source}
	if data != nil {
		if !t.AllowsData() {
			return nil, fmt.Errorf("%w: %s carries no data", ErrInvalidPayload, t)
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s data: %w", t, err)
		}
		msg.Data = raw
	} else if t.RequiresData() {
		return nil, fmt.Errorf("%w: %s", ErrMissingData, t)
	}
	return json.Marshal(msg)
}

// Encode 序列化一个具体消息
func Encode(source string, m Message) ([]byte, error) {
	return Build(source, m.Type(), m.payload())
}

// Parse 解析客户端消息，source 字段被忽略
func Parse(raw []byte) (Message, error) {
	f, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return f.Message, nil
}

// Decode 解析任意方向的消息并校验 msgType 与 data 的形状
func Decode(raw []byte) (Frame, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return Frame{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	rawType, ok := fields["msgType"]
	if !ok {
		return Frame{}, fmt.Errorf("%w: msgType missing", ErrMalformed)
	}
	var t Type
	if err := json.Unmarshal(rawType, &t); err != nil {
		return Frame{}, fmt.Errorf("%w: msgType is not a string", ErrMalformed)
	}
	if !t.Valid() {
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	var f Frame
	if rawSource, ok := fields["source"]; ok {
		if err := json.Unmarshal(rawSource, &f.Source); err != nil {
			return Frame{}, fmt.Errorf("%w: source is not a string", ErrMalformed)
		}
	}

	data, hasData := fields["data"]
	if t.RequiresData() && !hasData {
		return Frame{}, fmt.Errorf("%w: %s", ErrMissingData, t)
	}

	msg, err := decodePayload(t, data, hasData)
	if err != nil {
		return Frame{}, err
	}
	f.Message = msg
	return f, nil
}

func decodePayload(t Type, data json.RawMessage, hasData bool) (Message, error) {
	switch t {
	case TypeConnectRequest:
		var name string
		if err := strictUnmarshal(data, &name); err != nil {
			return nil, err
		}
		return ConnectRequest{Name: name}, nil

	case TypeAcceptConnection:
		return AcceptConnection{}, nil

	case TypeErrNameTaken:
		return NameTaken{}, nil

	case TypeMaze:
		var cells [][]maze.Cell
		if err := strictUnmarshal(data, &cells); err != nil {
			return nil, err
		}
		if err := validateCells(cells); err != nil {
			return nil, err
		}
		return MazeLayout{Cells: cells}, nil

	case TypeUpdatePos:
		return decodePositions(data)

	case TypeSetReady:
		var ready bool
		if err := strictUnmarshal(data, &ready); err != nil {
			return nil, err
		}
		return SetReady{Ready: ready}, nil

	case TypePlayerConnected:
		if !hasData || isNull(data) {
			return PlayerConnected{}, nil
		}
		var info PlayerInfo
		if err := strictUnmarshal(data, &info); err != nil {
			return nil, err
		}
		return PlayerConnected{Player: &info}, nil

	case TypePlayerDisconnected:
		return PlayerDisconnected{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

// point 用指针区分缺失字段与零值
type point struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (p point) vec() (Vec2, bool) {
	if p.X == nil || p.Y == nil {
		return Vec2{}, false
	}
	return Vec2{X: *p.X, Y: *p.Y}, true
}

// decodePositions 单个 {x,y} 解析为 UpdatePos，{name:{x,y}} 解析为 PositionBatch
func decodePositions(data json.RawMessage) (Message, error) {
	var obj map[string]json.RawMessage
	if err := strictUnmarshal(data, &obj); err != nil {
		return nil, err
	}
	_, hasX := obj["x"]
	_, hasY := obj["y"]
	if hasX || hasY {
		var p point
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		v, ok := p.vec()
		if !ok {
			return nil, fmt.Errorf("%w: position needs x and y", ErrInvalidPayload)
		}
		return UpdatePos{Position: v}, nil
	}

	batch := make(map[string]Vec2, len(obj))
	for name, raw := range obj {
		var p point
		if err := strictUnmarshal(raw, &p); err != nil {
			return nil, err
		}
		v, ok := p.vec()
		if !ok {
			return nil, fmt.Errorf("%w: position of %q needs x and y", ErrInvalidPayload, name)
		}
		batch[name] = v
	}
	return PositionBatch{Positions: batch}, nil
}

func validateCells(cells [][]maze.Cell) error {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return fmt.Errorf("%w: empty maze", ErrInvalidPayload)
	}
	width := len(cells[0])
	for _, row := range cells {
		if len(row) != width {
			return fmt.Errorf("%w: maze rows differ in length", ErrInvalidPayload)
		}
		for _, c := range row {
			if c != maze.Wall && c != maze.Passage {
				return fmt.Errorf("%w: unknown cell value %d", ErrInvalidPayload, c)
			}
		}
	}
	return nil
}

// strictUnmarshal 与 json.Unmarshal 相同，但 null 视为无效
func strictUnmarshal(data json.RawMessage, v any) error {
	if isNull(data) {
		return fmt.Errorf("%w: null", ErrInvalidPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
