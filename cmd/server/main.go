package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clanmetrics/wom-monitor/internal/api"
	"github.com/clanmetrics/wom-monitor/internal/cache"
	"github.com/clanmetrics/wom-monitor/internal/collector"
	"github.com/clanmetrics/wom-monitor/internal/config"
	"github.com/clanmetrics/wom-monitor/internal/pkg/logger"
	"github.com/clanmetrics/wom-monitor/internal/wom"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.WOM.GroupID == 0 {
		log.Fatal("No WOM group configured: set wom.group_id in config or WOM_GROUP_ID in the environment")
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check failed: %v", err)
	}

	logger.Info("starting wom-monitor",
		"group_id", cfg.WOM.GroupID,
		"wom_base_url", cfg.WOM.BaseURL,
		"api_key", cfg.WOM.APIKey,
	)

	// Optional Redis-backed snapshot cache
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, running without snapshot cache", "addr", cfg.Redis.Addr, "error", err)
			rdb = nil
		}
		cancel()
	}
	snaps := cache.New(rdb, cfg.Cache)

	client := wom.NewClient(wom.ClientConfig{
		BaseURL:   cfg.WOM.BaseURL,
		APIKey:    cfg.WOM.APIKey,
		UserAgent: cfg.WOM.UserAgent,
		Timeout:   cfg.WOM.Timeout(),
	})
	col := collector.New(client, snaps, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go col.Start(ctx)

	handlers := api.NewHandlers(col, client, cfg)
	healthChecker := api.NewHealthChecker(col, snaps, 3*cfg.Polling.Interval())
	router := api.SetupRoutes(handlers, healthChecker)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if rdb != nil {
		rdb.Close()
	}
	log.Println("Shutdown complete")
}
