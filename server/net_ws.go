package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // 必须小于 pongWait
	maxMessageSize = 1 << 20          // 1MB
	minSendBuffer  = 2                // 握手应答 + 加入批次
)

var (
	ErrConnClosed    = errors.New("connection closed")
	ErrSendQueueFull = errors.New("send queue full")
)

// ClientConn 包装一个 WebSocket 连接：读在调用方协程，写由独立的 writePump 串行完成。
// 队列中每一项是一批消息，批内消息按顺序逐条写出。
type ClientConn struct {
	ws   *websocket.Conn
	send chan [][]byte

	mu     sync.Mutex
	closed bool
}

func NewClientConn(ws *websocket.Conn, bufSize int) *ClientConn {
	if bufSize < minSendBuffer {
		bufSize = minSendBuffer
	}
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &ClientConn{
		ws:   ws,
		send: make(chan [][]byte, bufSize),
	}
}

// Send 将消息压入发送队列（非阻塞）。队列满或连接已关闭时返回错误。
func (c *ClientConn) Send(b []byte) error {
	return c.enqueue([][]byte{b})
}

// SendBatch 整批只占用一个队列位置，批大小不受 bufSize 限制
func (c *ClientConn) SendBatch(msgs [][]byte) error {
	if len(msgs) == 0 {
		return nil
	}
	return c.enqueue(msgs)
}

func (c *ClientConn) enqueue(batch [][]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- batch:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Read 阻塞读取下一条消息
func (c *ClientConn) Read() ([]byte, error) {
	_, payload, err := c.ws.ReadMessage()
	return payload, err
}

// Close 关闭发送队列；writePump 发完剩余消息后关闭底层连接
func (c *ClientConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

func (c *ClientConn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期发送 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case batch, ok := <-c.send:
			if !ok {
				// 队列已关闭：发送关闭帧
				_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			for _, msg := range batch {
				_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
					_ = c.Close()
					return
				}
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 允许所有来源，客户端为独立部署的前端
		return true
	},
}

// HandleWS WebSocket 接入；名字在连接建立后通过握手协商
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("upgrade error", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := NewClientConn(ws, s.opts.SendBuffer)
	go client.writePump()
	if !s.track(client) {
		// 服务正在关闭：writePump 发送关闭帧后断开
		_ = client.Close()
		return
	}
	go func() {
		defer s.untrack(client)
		s.serveTracked(client)
	}()
}
