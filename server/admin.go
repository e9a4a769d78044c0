package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"mazesync/maze"
)

const defaultPNGSize = 512

// mazeExport 迷宫的 JSON 表示
type mazeExport struct {
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Cells  [][]maze.Cell `json:"cells"`
}

func exportMaze(m *maze.Maze) mazeExport {
	return mazeExport{Width: m.Width(), Height: m.Height(), Cells: m.Export()}
}

// Routes 注册 WebSocket 与管理接口
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.HandleWS)
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/admin/config", s.HandleAdminConfig)
	mux.HandleFunc("/admin/maze", s.HandleMaze)
	mux.HandleFunc("/admin/maze.png", s.HandleMazePNG)
	mux.HandleFunc("/admin/sessions", s.HandleSessions)
	mux.HandleFunc("/metrics", s.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

// HandleAdminConfig 读取与更新之后生成迷宫使用的尺寸
// GET /admin/config  返回当前配置
// POST /admin/config 以 JSON 载荷更新部分字段
func (s *Server) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	type cfg struct {
		MazeWidth  *int `json:"mazeWidth,omitempty"`
		MazeHeight *int `json:"mazeHeight,omitempty"`
		TickRate   *int `json:"tickRate,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		width, height := s.MazeSize()
		tickRate := s.opts.TickRate
		writeJSON(w, http.StatusOK, cfg{MazeWidth: &width, MazeHeight: &height, TickRate: &tickRate})
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.TickRate != nil {
			http.Error(w, "tickRate is read-only", http.StatusBadRequest)
			return
		}
		width, height := s.MazeSize()
		if body.MazeWidth != nil {
			width = *body.MazeWidth
		}
		if body.MazeHeight != nil {
			height = *body.MazeHeight
		}
		if err := s.SetMazeSize(width, height); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		Log.Infof("config updated: maze=%dx%d", width, height)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMaze GET 返回当前迷宫；POST 重新生成并广播
func (s *Server) HandleMaze(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, exportMaze(s.Maze()))
	case http.MethodPost:
		m, err := s.RegenerateMaze()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, exportMaze(m))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMazePNG 当前迷宫的预览图
// GET /admin/maze.png?size=256
func (s *Server) HandleMazePNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	size := defaultPNGSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid size", http.StatusBadRequest)
			return
		}
		size = n
	}

	var buf bytes.Buffer
	if err := s.Maze().WritePNG(&buf, size); err != nil {
		Log.Errorw("render maze", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

// HandleSessions 在线玩家名单
func (s *Server) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Sessions())
}

// HandleMetrics 输出运行指标
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"sessions": s.registry.Len(),
		"metrics":  s.metrics.Snapshot(),
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
