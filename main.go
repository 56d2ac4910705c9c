package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"syncarena/client"
	"syncarena/config"
	"syncarena/server"
)

// 入口：启动 HTTP + WebSocket 服务，可选拉起若干内置机器人客户端
func main() {
	cfg := config.Load()

	var (
		addr  = flag.String("addr", cfg.Addr, "server listen address, e.g. :8080")
		bots  = flag.Int("bots", cfg.Bots, "number of in-process bot clients")
		debug = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	if err := server.InitLogger(cfg.LogFile, *debug); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	rm := server.InitRoomManager(cfg)
	// 预创建默认房间，便于快速试跑
	_ = rm.GetOrCreateRoom("room-1")

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	// 前后端分离：/ 映射到 web 目录的静态资源
	mux.Handle("/", http.FileServer(http.Dir("web")))
	// 管理与监控接口
	mux.HandleFunc("/admin/config", server.HandleAdminConfig)
	mux.HandleFunc("/metrics", server.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		server.Log.Infof("syncarena listening on %s; open http://localhost%v/", *addr, *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 内置机器人：连到本机默认房间，驱动完整客户端链路
	runners := make([]*client.Runner, 0, *bots)
	for i := 0; i < *bots; i++ {
		url := fmt.Sprintf("ws://localhost%s/ws?room=room-1", normalizeAddr(*addr))
		r := client.NewRunner(url, cfg, server.Log)
		runners = append(runners, r)
		go func(r *client.Runner) {
			// 给服务一点起身时间
			time.Sleep(300 * time.Millisecond)
			if err := r.Run(); err != nil {
				server.Log.Warnf("bot exited: %v", err)
			}
		}(r)
	}

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")
	for _, r := range runners {
		r.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// normalizeAddr 把 ":8080" 这类监听地址规整成可拨号的 host:port 后缀
func normalizeAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return addr
	}
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ":" + addr
}
