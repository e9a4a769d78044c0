package server

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mazesync/protocol"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeTransport 内存中的 Transport，记录所有发送的消息
type fakeTransport struct {
	in       chan []byte
	closedCh chan struct{}
	once     sync.Once

	mu       sync.Mutex
	sent     [][]byte
	failSend bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:       make(chan []byte, 16),
		closedCh: make(chan struct{}),
	}
}

func (f *fakeTransport) Read() ([]byte, error) {
	select {
	case b, ok := <-f.in:
		if !ok {
			return nil, io.EOF
		}
		return b, nil
	case <-f.closedCh:
		return nil, ErrConnClosed
	}
}

func (f *fakeTransport) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return errBrokenPipe
	}
	if f.isClosed() {
		return ErrConnClosed
	}
	f.sent = append(f.sent, b)
	return nil
}

func (f *fakeTransport) SendBatch(msgs [][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return errBrokenPipe
	}
	if f.isClosed() {
		return ErrConnClosed
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.closedCh) })
	return nil
}

func (f *fakeTransport) RemoteAddr() string { return "fake:0" }

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closedCh:
		return true
	default:
		return false
	}
}

func (f *fakeTransport) push(msg string) { f.in <- []byte(msg) }

// frames 解码所有已发送的消息
func (f *fakeTransport) frames(t *testing.T) []protocol.Frame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Frame, 0, len(f.sent))
	for _, b := range f.sent {
		fr, err := protocol.Decode(b)
		require.NoError(t, err, string(b))
		out = append(out, fr)
	}
	return out
}

func (f *fakeTransport) types(t *testing.T) []protocol.Type {
	t.Helper()
	var out []protocol.Type
	for _, fr := range f.frames(t) {
		out = append(out, fr.Message.Type())
	}
	return out
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Options{MazeWidth: 5, MazeHeight: 5, MazeSeed: 1, TickRate: 20, SendBuffer: 64})
	require.NoError(t, err)
	return s
}

// addMember 跳过握手，直接注册并加入广播
func addMember(t *testing.T, s *Server, name string) (*Session, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	sess, err := s.registry.Reserve(name, ft)
	require.NoError(t, err)
	require.True(t, s.registry.Join(sess, nil))
	return sess, ft
}

// serve 在协程中运行 ServeConn，返回结束通知
func serve(s *Server, ft *fakeTransport) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.ServeConn(ft)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("connection handler did not exit")
	}
}

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)
