package protocol

// Type 消息类型（线上字段 msgType）
type Type string

const (
	TypeConnectRequest     Type = "connect_request"
	TypeAcceptConnection   Type = "accept_connection"
	TypeErrNameTaken       Type = "err_name_taken"
	TypeMaze               Type = "maze"
	TypeUpdatePos          Type = "update_pos"
	TypeSetReady           Type = "set_ready"
	TypePlayerConnected    Type = "player_connected"
	TypePlayerDisconnected Type = "player_disconnected"
)

// dataRule 描述某类消息是否携带 data 字段
type dataRule int

const (
	dataNone dataRule = iota
	dataRequired
	dataOptional
)

var dataRules = map[Type]dataRule{
	TypeConnectRequest:     dataRequired,
	TypeAcceptConnection:   dataNone,
	TypeErrNameTaken:       dataNone,
	TypeMaze:               dataRequired,
	TypeUpdatePos:          dataRequired,
	TypeSetReady:           dataRequired,
	TypePlayerConnected:    dataOptional,
	TypePlayerDisconnected: dataNone,
}

// Valid 是否为已知类型
func (t Type) Valid() bool {
	_, ok := dataRules[t]
	return ok
}

// RequiresData 该类型是否必须携带 data
func (t Type) RequiresData() bool {
	return dataRules[t] == dataRequired
}

// AllowsData 该类型是否可以携带 data
func (t Type) AllowsData() bool {
	r, ok := dataRules[t]
	return ok && r != dataNone
}

// Vec2 浮点坐标
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerInfo 会话快照，用于 player_connected 与名单回放
type PlayerInfo struct {
	Name     string `json:"name"`
	Position Vec2   `json:"position"`
	Ready    bool   `json:"isReady"`
}
