// Package log 提供日志模块的配置实现
package log

import (
	"go.uber.org/zap/zapcore"
)

// 默认配置值
const (
	defaultLogLevel   = "info"
	defaultToConsole  = true
	defaultFilePath   = "./data/logs/hychain.log"
	defaultMaxSize    = 100 // MB
	defaultMaxBackups = 5
	defaultMaxAge     = 28 // 天
	defaultCompress   = true
)

// defaultLevelMap 日志级别名到zap级别的映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}

// LogOptions 日志配置选项
// 专注于基础设施核心功能的简化配置
type LogOptions struct {
	// === 基础配置 ===
	Level     string `json:"level"`      // 日志级别 (debug, info, warn, error, fatal)
	ToConsole bool   `json:"to_console"` // 是否输出到控制台
	FilePath  string `json:"file_path"`  // 日志文件路径

	// === 基础轮转配置 ===
	MaxSize    int  `json:"max_size"`    // 单个日志文件最大大小(MB)
	MaxBackups int  `json:"max_backups"` // 最大备份文件数
	MaxAge     int  `json:"max_age"`     // 日志文件最大保留天数
	Compress   bool `json:"compress"`    // 是否压缩历史日志文件

	// === 内部配置（不对外暴露） ===
	LevelMap map[string]zapcore.Level `json:"-"` // 级别映射
}

// Config 日志配置实现
type Config struct {
	options *LogOptions
}

// New 创建日志配置实现
func New(userConfig interface{}) *Config {
	// 1. 先创建完整的默认配置
	defaultOptions := createDefaultLogOptions()

	// 2. 如果有用户配置，应用用户配置覆盖默认值
	if userConfig != nil {
		applyUserLogConfig(defaultOptions, userConfig)
	}

	return &Config{
		options: defaultOptions,
	}
}

// NewFromOptions 从已解析的选项创建日志配置实现
func NewFromOptions(options *LogOptions) *Config {
	if options == nil {
		return New(nil)
	}
	if options.LevelMap == nil {
		options.LevelMap = defaultLevelMap
	}
	return &Config{options: options}
}

// createDefaultLogOptions 创建默认日志配置
func createDefaultLogOptions() *LogOptions {
	return &LogOptions{
		Level:      defaultLogLevel,
		ToConsole:  defaultToConsole,
		FilePath:   defaultFilePath,
		MaxSize:    defaultMaxSize,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAge,
		Compress:   defaultCompress,
		LevelMap:   defaultLevelMap,
	}
}

// applyUserLogConfig 应用用户日志配置覆盖默认值
func applyUserLogConfig(options *LogOptions, userConfig interface{}) {
	configMap, ok := userConfig.(map[string]interface{})
	if !ok {
		return
	}

	if v, exists := configMap["level"]; exists {
		if s, ok := v.(string); ok {
			if _, valid := defaultLevelMap[s]; valid {
				options.Level = s
			}
		}
	}
	if v, exists := configMap["file_path"]; exists {
		if s, ok := v.(string); ok && s != "" {
			options.FilePath = s
			// 指定文件路径时默认不输出到控制台
			options.ToConsole = false
		}
	}
	if v, exists := configMap["to_console"]; exists {
		if b, ok := v.(bool); ok {
			options.ToConsole = b
		}
	}
	if v, exists := configMap["max_size"]; exists {
		if f, ok := v.(float64); ok && f > 0 {
			options.MaxSize = int(f)
		}
	}
	if v, exists := configMap["max_backups"]; exists {
		if f, ok := v.(float64); ok && f >= 0 {
			options.MaxBackups = int(f)
		}
	}
	if v, exists := configMap["max_age"]; exists {
		if f, ok := v.(float64); ok && f >= 0 {
			options.MaxAge = int(f)
		}
	}
	if v, exists := configMap["compress"]; exists {
		if b, ok := v.(bool); ok {
			options.Compress = b
		}
	}
}

// GetOptions 获取完整的日志配置选项
func (c *Config) GetOptions() *LogOptions {
	return c.options
}

// === 基础配置访问方法 ===

// GetLevel 获取日志级别
func (c *Config) GetLevel() string {
	return c.options.Level
}

// GetZapLevel 获取zap日志级别
func (c *Config) GetZapLevel() zapcore.Level {
	if level, exists := c.options.LevelMap[c.options.Level]; exists {
		return level
	}
	return zapcore.InfoLevel // 默认返回Info级别
}

// IsConsoleEnabled 是否输出到控制台
func (c *Config) IsConsoleEnabled() bool {
	return c.options.ToConsole
}

// GetFilePath 获取日志文件路径
func (c *Config) GetFilePath() string {
	return c.options.FilePath
}

// GetMaxSize 获取单文件最大大小(MB)
func (c *Config) GetMaxSize() int {
	return c.options.MaxSize
}

// GetMaxBackups 获取最大备份文件数
func (c *Config) GetMaxBackups() int {
	return c.options.MaxBackups
}

// GetMaxAge 获取最大保留天数
func (c *Config) GetMaxAge() int {
	return c.options.MaxAge
}

// IsCompressionEnabled 是否压缩历史日志
func (c *Config) IsCompressionEnabled() bool {
	return c.options.Compress
}
