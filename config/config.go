package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"mazesync/maze"
)

// Config 服务运行所需的全部配置
type Config struct {
	Host string // 监听地址
	Port int    // 监听端口

	MazeWidth  int    // 迷宫宽度（偶数会向上取奇数）
	MazeHeight int    // 迷宫高度
	MazeSeed   uint64 // 0 表示随机种子

	TickRate   int // 每秒 Tick 次数
	SendBuffer int // 每个连接的发送队列长度

	LogFile  string
	LogLevel string
}

// 默认值与原始服务保持一致
const (
	defaultHost       = "127.0.0.1"
	defaultPort       = 3003
	defaultMazeWidth  = 13
	defaultMazeHeight = 13
	defaultTickRate   = 20
	defaultSendBuffer = 64
	defaultLogFile    = "app.log"
	defaultLogLevel   = "info"
)

var ErrInvalidConfig = errors.New("invalid config")

// MinSendBuffer 握手应答与加入批次各占一个队列位置
const MinSendBuffer = 2

// Addr 返回 host:port
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate 检查配置取值范围
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	case maze.CheckDimensions(c.MazeWidth, c.MazeHeight) != nil:
		return fmt.Errorf("%w: maze size %dx%d must be within 1..%d", ErrInvalidConfig, c.MazeWidth, c.MazeHeight, maze.MaxDimension)
	case c.TickRate <= 0:
		return fmt.Errorf("%w: tick rate %d must be positive", ErrInvalidConfig, c.TickRate)
	case c.SendBuffer < MinSendBuffer:
		return fmt.Errorf("%w: send buffer %d must be at least %d", ErrInvalidConfig, c.SendBuffer, MinSendBuffer)
	}
	return nil
}

// Load 读取 .env（可选）与环境变量，缺省项使用默认值。
// files 为空时加载当前目录下的 .env。
func Load(files ...string) (*Config, error) {
	// .env 不存在时忽略，环境变量仍然生效
	_ = godotenv.Load(files...)

	var err error
	cfg := &Config{
		Host:     getEnv("MAZESYNC_HOST", defaultHost),
		LogFile:  getEnv("MAZESYNC_LOG_FILE", defaultLogFile),
		LogLevel: strings.ToLower(getEnv("MAZESYNC_LOG_LEVEL", defaultLogLevel)),
	}
	if cfg.Port, err = getEnvAsInt("MAZESYNC_PORT", defaultPort); err != nil {
		return nil, err
	}
	if cfg.MazeWidth, err = getEnvAsInt("MAZESYNC_MAZE_WIDTH", defaultMazeWidth); err != nil {
		return nil, err
	}
	if cfg.MazeHeight, err = getEnvAsInt("MAZESYNC_MAZE_HEIGHT", defaultMazeHeight); err != nil {
		return nil, err
	}
	if cfg.TickRate, err = getEnvAsInt("MAZESYNC_TICK_RATE", defaultTickRate); err != nil {
		return nil, err
	}
	if cfg.SendBuffer, err = getEnvAsInt("MAZESYNC_SEND_BUFFER", defaultSendBuffer); err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv("MAZESYNC_MAZE_SEED"); ok && v != "" {
		if cfg.MazeSeed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, fmt.Errorf("%w: MAZESYNC_MAZE_SEED must be an unsigned integer: %v", ErrInvalidConfig, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// getEnvAsInt 读取整数环境变量，未设置时返回默认值
func getEnvAsInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer: %v", ErrInvalidConfig, key, err)
	}
	return n, nil
}
