// Package app 提供HyChain节点的应用引导程序
//
// 🚀 **应用组装 (Application Assembly)**
//
// 本包负责按依赖层次组装全部fx模块并管理节点生命周期：
// - 基础设施层：配置、日志、时钟、事件
// - 数据层：密码学、链存储、内存存储、结果缓存
// - 业务层：单节点协作方、共识引擎
// - 应用层：运维HTTP端点
//
// 模块加载顺序必须遵循依赖关系，从底层基础模块到上层应用模块。
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/hychain/v1/internal/api/ops"
	"github.com/hychain/v1/internal/config"
	"github.com/hychain/v1/internal/core/consensus/engine"
	"github.com/hychain/v1/internal/core/consensus/local"
	"github.com/hychain/v1/internal/core/infrastructure/cache"
	"github.com/hychain/v1/internal/core/infrastructure/clock"
	"github.com/hychain/v1/internal/core/infrastructure/crypto"
	"github.com/hychain/v1/internal/core/infrastructure/event"
	logmodule "github.com/hychain/v1/internal/core/infrastructure/log"
	badgerstore "github.com/hychain/v1/internal/core/infrastructure/storage/badger"
	memorystore "github.com/hychain/v1/internal/core/infrastructure/storage/memory"
)

// shutdownTimeout 停机流程的最长等待时间
const shutdownTimeout = 30 * time.Second

// Bootstrap 应用引导程序
type Bootstrap struct {
	configPath string
	fxApp      *fx.App
}

// NewBootstrap 创建引导程序
func NewBootstrap(configPath string) *Bootstrap {
	return &Bootstrap{configPath: configPath}
}

// setupInfrastructureLayer 设置基础设施层模块
func (b *Bootstrap) setupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		// 配置路径由CLI注入，config模块据此加载配置文件
		fx.Supply(config.ConfigPath(b.configPath)),
		config.Module(),    // 1. 配置(不依赖其他)
		logmodule.Module(), // 2. 日志(依赖配置)
		clock.Module(),     // 3. 时钟(依赖配置和日志)
		event.Module(),     // 4. 事件总线(依赖日志)
	}
}

// setupDataLayer 设置数据层模块
func (b *Bootstrap) setupDataLayer() []fx.Option {
	return []fx.Option{
		crypto.Module(),      // 密码学(依赖日志)
		badgerstore.Module(), // 链存储(依赖配置、密码学)
		memorystore.Module(), // 内存存储(依赖日志)
		cache.Module(),       // 结果缓存(依赖配置、时钟)
	}
}

// setupBusinessLayer 设置业务逻辑层模块
func (b *Bootstrap) setupBusinessLayer() []fx.Option {
	// 加载顺序必须遵循依赖关系：协作方 -> 共识引擎
	return []fx.Option{
		local.Module(),  // 单节点协作方(PoW/投票/链句柄)
		engine.Module(), // 混合共识引擎
	}
}

// setupApplicationLayer 设置应用层模块
func (b *Bootstrap) setupApplicationLayer() []fx.Option {
	return []fx.Option{
		ops.Module(), // 运维HTTP端点(健康检查 + Prometheus指标)
	}
}

// buildOptions 按层次组装全部fx选项
func (b *Bootstrap) buildOptions() []fx.Option {
	var opts []fx.Option
	opts = append(opts, b.setupInfrastructureLayer()...)
	opts = append(opts, b.setupDataLayer()...)
	opts = append(opts, b.setupBusinessLayer()...)
	opts = append(opts, b.setupApplicationLayer()...)

	// fx自身的装配日志只在出错时需要，降噪处理
	opts = append(opts, fx.WithLogger(func() fxevent.Logger {
		return fxevent.NopLogger
	}))
	return opts
}

// Start 启动节点并阻塞到收到退出信号
func (b *Bootstrap) Start() error {
	b.fxApp = fx.New(b.buildOptions()...)

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := b.fxApp.Start(startCtx); err != nil {
		return fmt.Errorf("节点启动失败: %w", err)
	}

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	fmt.Printf("\n📡 收到信号 %s，开始优雅停机...\n", sig)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelStop()
	if err := b.fxApp.Stop(stopCtx); err != nil {
		return fmt.Errorf("节点停机失败: %w", err)
	}
	return nil
}
