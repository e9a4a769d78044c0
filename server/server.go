package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mazesync/maze"
	"mazesync/protocol"
)

// Options 服务参数
type Options struct {
	MazeWidth  int
	MazeHeight int
	MazeSeed   uint64 // 0 表示随机
	TickRate   int
	SendBuffer int
}

// mazeState 当前迷宫及其预先编码好的 maze 消息
type mazeState struct {
	maze    *maze.Maze
	message []byte
}

// Server 持有全部共享状态，显式传给连接处理协程与 Tick 循环
type Server struct {
	opts Options

	registry *Registry
	router   *Router
	dirty    *DirtySet
	metrics  *Metrics
	loop     *GameLoop

	current atomic.Pointer[mazeState]
	regenMu sync.Mutex // 串行化 生成、替换、广播 三步

	genMu      sync.Mutex // 保护 rng 与迷宫尺寸
	rng        *rand.Rand
	mazeWidth  int
	mazeHeight int

	lifeMu  sync.Mutex // 保护 closing 与 conns.Add
	closing bool
	conns   sync.WaitGroup
	live    sync.Map // Transport -> struct{}，包括握手中的连接
}

// New 创建服务并生成初始迷宫
func New(opts Options) (*Server, error) {
	if opts.SendBuffer < minSendBuffer {
		opts.SendBuffer = minSendBuffer
	}
	seed1, seed2 := opts.MazeSeed, opts.MazeSeed^0x9e3779b97f4a7c15
	if opts.MazeSeed == 0 {
		seed1, seed2 = rand.Uint64(), rand.Uint64()
	}

	metrics := &Metrics{}
	registry := NewRegistry()
	s := &Server{
		opts:       opts,
		registry:   registry,
		router:     NewRouter(registry, metrics),
		dirty:      NewDirtySet(),
		metrics:    metrics,
		rng:        rand.New(rand.NewPCG(seed1, seed2)),
		mazeWidth:  opts.MazeWidth,
		mazeHeight: opts.MazeHeight,
	}
	s.loop = NewGameLoop(opts.TickRate, s.flushPositions, metrics)

	if _, err := s.generate(); err != nil {
		return nil, fmt.Errorf("initial maze: %w", err)
	}
	return s, nil
}

func (s *Server) Registry() *Registry { return s.registry }
func (s *Server) Metrics() *Metrics   { return s.metrics }

// Maze 当前迷宫；旧迷宫对象在替换后仍可安全读取
func (s *Server) Maze() *maze.Maze {
	return s.current.Load().maze
}

// MazeSize 之后重新生成迷宫时使用的尺寸
func (s *Server) MazeSize() (int, int) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.mazeWidth, s.mazeHeight
}

func (s *Server) SetMazeSize(width, height int) error {
	if err := maze.CheckDimensions(width, height); err != nil {
		return err
	}
	s.genMu.Lock()
	s.mazeWidth, s.mazeHeight = width, height
	s.genMu.Unlock()
	return nil
}

// generate 生成新迷宫并整体替换当前迷宫
func (s *Server) generate() (*mazeState, error) {
	s.genMu.Lock()
	m, err := maze.Generate(s.mazeWidth, s.mazeHeight, s.rng)
	s.genMu.Unlock()
	if err != nil {
		return nil, err
	}
	b, err := protocol.Encode(protocol.ServerSource, protocol.MazeLayout{Cells: m.Export()})
	if err != nil {
		return nil, err
	}
	st := &mazeState{maze: m, message: b}
	s.current.Store(st)
	s.metrics.IncMazesGenerated()
	return st, nil
}

// RegenerateMaze 重新生成迷宫并广播给所有会话。
// 并发调用按顺序执行，最后一次广播的迷宫总是当前迷宫。
func (s *Server) RegenerateMaze() (*maze.Maze, error) {
	s.regenMu.Lock()
	defer s.regenMu.Unlock()

	st, err := s.generate()
	if err != nil {
		return nil, err
	}
	failed := s.router.Broadcast(st.message, nil)
	Log.Infow("new maze generated", "width", st.maze.Width(), "height", st.maze.Height(),
		"sessions", s.registry.Len(), "failed", len(failed))
	return st.maze, nil
}

// Sessions 当前成员快照
func (s *Server) Sessions() []protocol.PlayerInfo {
	members := s.registry.Members()
	out := make([]protocol.PlayerInfo, 0, len(members))
	for _, m := range members {
		out = append(out, m.Snapshot())
	}
	return out
}

// Run 运行 Tick 循环直到 ctx 取消
func (s *Server) Run(ctx context.Context) error {
	Log.Infow("game loop started", "interval", s.loop.Interval())
	s.loop.Run(ctx)
	Log.Info("game loop stopped")
	return nil
}

// ServeConn 处理一个连接的完整生命周期：握手、加入、消息循环、断开清理。
// 服务关闭后到达的连接直接关闭。
func (s *Server) ServeConn(conn Transport) {
	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)
	s.serveTracked(conn)
}

// track 登记连接以便 Shutdown 关闭并等待；关闭开始后返回 false
func (s *Server) track(conn Transport) bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.closing {
		return false
	}
	s.conns.Add(1)
	s.live.Store(conn, struct{}{})
	return true
}

func (s *Server) untrack(conn Transport) {
	s.live.Delete(conn)
	s.conns.Done()
}

func (s *Server) serveTracked(conn Transport) {
	log := Log.With("conn", uuid.NewString(), "remote", conn.RemoteAddr())

	sess, err := s.handshake(conn, log)
	if err != nil {
		if errors.Is(err, ErrHandshakeRejected) {
			log.Infow("handshake rejected")
		} else {
			log.Debugw("connection closed during handshake", "error", err)
		}
		_ = conn.Close()
		return
	}

	log = log.With("name", sess.name)
	// 任何退出路径都执行断开清理
	defer s.disconnect(sess, log)

	s.join(sess, log)
	for {
		raw, err := conn.Read()
		if err != nil {
			log.Debugw("read ended", "error", err)
			return
		}
		s.handleMessage(sess, raw, log)
	}
}

// join 向新会话发送迷宫与现有名单，通知其他人，然后加入广播
func (s *Server) join(sess *Session, log *zap.SugaredLogger) {
	announce, err := protocol.Encode(sess.name, protocol.PlayerConnected{Player: ptr(sess.Snapshot())})
	if err != nil {
		log.Errorw("encode player_connected", "error", err)
		return
	}

	joined := s.registry.Join(sess, func(existing []*Session) {
		// 在注册锁内读取迷宫：并发的重新生成要么先于此处，要么其广播包含本会话
		batch := make([][]byte, 0, len(existing)+1)
		batch = append(batch, s.current.Load().message)
		for _, other := range existing {
			b, err := protocol.Encode(other.name, protocol.PlayerConnected{Player: ptr(other.Snapshot())})
			if err != nil {
				log.Errorw("encode roster entry", "player", other.name, "error", err)
				continue
			}
			batch = append(batch, b)
		}
		// 迷宫与名单整体入队，名单长度不受发送队列容量限制
		if err := sess.SendBatch(batch); err != nil {
			s.metrics.AddSendFailures(len(batch))
			log.Warnw("send maze and roster", "messages", len(batch), "error", err)
		}
		s.router.deliver(existing, announce, nil)
	})
	if !joined {
		log.Warnw("session released before join")
		return
	}
	s.metrics.IncJoins()
	log.Infow("player connected", "sessions", s.registry.Len())
}

// disconnect 移出注册表、通知其余会话并关闭连接
func (s *Server) disconnect(sess *Session, log *zap.SugaredLogger) {
	wasMember := s.registry.Remove(sess)
	s.dirty.Delete(sess.name)
	if wasMember {
		if b, err := protocol.Encode(sess.name, protocol.PlayerDisconnected{}); err == nil {
			s.router.Broadcast(b, nil)
		}
		s.metrics.IncLeaves()
	}
	_ = sess.conn.Close()
	log.Infow("player disconnected", "sessions", s.registry.Len())
}

// Shutdown 关闭所有连接并等待连接协程退出
func (s *Server) Shutdown(ctx context.Context) error {
	s.lifeMu.Lock()
	s.closing = true
	s.lifeMu.Unlock()

	s.live.Range(func(k, _ any) bool {
		_ = k.(Transport).Close()
		return true
	})
	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func ptr[T any](v T) *T { return &v }
