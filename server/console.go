package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// 控制台命令
const (
	cmdQuit    = "QUIT"
	cmdMaze    = "MAZE"
	cmdNewMaze = "NEW_MAZE"
)

// Console 管理员控制台：逐行读取命令
type Console struct {
	srv      *Server
	out      io.Writer
	shutdown func()
}

func NewConsole(srv *Server, out io.Writer, shutdown func()) *Console {
	return &Console{srv: srv, out: out, shutdown: shutdown}
}

// Run 读取命令直到 QUIT、输入结束或 ctx 取消
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if quit := c.Exec(scanner.Text()); quit {
			return nil
		}
	}
	return scanner.Err()
}

// Exec 执行一条命令，返回是否退出
func (c *Console) Exec(line string) bool {
	cmd := strings.ToUpper(strings.TrimSpace(line))
	switch cmd {
	case "":
		return false
	case cmdQuit:
		Log.Info("Server shutting down...")
		if c.shutdown != nil {
			c.shutdown()
		}
		return true
	case cmdMaze:
		fmt.Fprint(c.out, c.srv.Maze().String())
	case cmdNewMaze:
		if _, err := c.srv.RegenerateMaze(); err != nil {
			Log.Errorw("regenerate maze", "error", err)
			fmt.Fprintf(c.out, "failed to generate maze: %v\n", err)
			return false
		}
		fmt.Fprintln(c.out, "Sent new maze successfully!")
	default:
		Log.Warnw("unknown console command", "command", cmd)
		fmt.Fprintf(c.out, "Unknown command: %s\n", cmd)
	}
	return false
}
