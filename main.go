package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"mazesync/config"
	"mazesync/server"
)

// mazesync 入口：加载配置，启动 WebSocket 服务、Tick 循环与管理员控制台
func main() {
	var addr, envFile string
	flag.StringVar(&addr, "addr", "", "server listen address, e.g. 127.0.0.1:3003 (overrides env)")
	flag.StringVar(&envFile, "env", ".env", "optional .env file")
	flag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		panic(err)
	}
	if addr == "" {
		addr = cfg.Addr()
	}

	// 使用 zap 日志写入滚动文件并输出到控制台
	if err := server.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	srv, err := server.New(server.Options{
		MazeWidth:  cfg.MazeWidth,
		MazeHeight: cfg.MazeHeight,
		MazeSeed:   cfg.MazeSeed,
		TickRate:   cfg.TickRate,
		SendBuffer: cfg.SendBuffer,
	})
	if err != nil {
		server.Log.Fatalf("create server: %v", err)
	}

	mux := http.NewServeMux()
	srv.Routes(mux)
	httpSrv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	// Ctrl+C 或控制台 QUIT 都会取消 ctx
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 控制台阻塞在 stdin 上，不放进 errgroup
	console := server.NewConsole(srv, os.Stdout, stop)
	go func() {
		if err := console.Run(ctx, os.Stdin); err != nil {
			server.Log.Warnw("console stopped", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		server.Log.Infof("Server listening on ws://%s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		server.Log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			server.Log.Warnw("http shutdown", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		server.Log.Errorw("server stopped with error", "error", err)
	}
}
