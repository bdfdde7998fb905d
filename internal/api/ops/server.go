// Package ops 提供运维HTTP端点（健康检查与Prometheus指标）
package ops

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
)

// Server 运维HTTP服务器
//
// 🎯 暴露两个端点：
//   - GET /health   共识引擎健康状态与聚合指标摘要
//   - GET /metrics  Prometheus抓取端点
type Server struct {
	httpServer *http.Server
	engine     consensusiface.Engine
	registry   *prometheus.Registry
	logger     log.Logger
}

// NewServer 创建运维服务器
func NewServer(addr string, engine consensusiface.Engine, registry *prometheus.Registry, logger log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		engine:   engine,
		registry: registry,
		logger:   logger,
	}

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// handleHealth 健康检查端点
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	healthy := s.engine.HealthCheck(ctx)
	metrics := s.engine.GetMetrics()

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       state,
		"collected_at": metrics.CollectedAt,
		"performance":  metrics.Performance,
		"cache":        metrics.Cache,
	})
}

// Start 启动HTTP监听（非阻塞）
func (s *Server) Start() error {
	s.logger.Infof("运维HTTP服务启动: addr=%s", s.httpServer.Addr)
	go func() {
		// ListenAndServe阻塞直到服务器关闭
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("运维HTTP服务异常退出: %v", err)
		}
	}()
	return nil
}

// Stop 优雅关闭HTTP服务
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("运维HTTP服务关闭中...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("运维HTTP服务关闭失败: %w", err)
	}
	return nil
}
