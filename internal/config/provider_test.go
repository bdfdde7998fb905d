package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestNewProvider 测试配置提供者装载
func TestNewProvider(t *testing.T) {
	t.Run("空路径使用全默认配置", func(t *testing.T) {
		p, err := NewProvider("")
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, p.GetConsensus().Validation.ValidationTimeout)
		assert.Equal(t, "./data", p.GetDataDir())
	})

	t.Run("配置文件覆盖默认值", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"data_dir": "/var/lib/hychain",
			"consensus": {
				"validation": {"validation_timeout": "8s"},
				"fork": {"max_fork_depth": 200}
			}
		}`)
		p, err := NewProvider(path)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/hychain", p.GetDataDir())
		assert.Equal(t, 8*time.Second, p.GetConsensus().Validation.ValidationTimeout)
		assert.Equal(t, uint64(200), p.GetConsensus().Fork.MaxForkDepth)
	})

	t.Run("文件不存在返回错误", func(t *testing.T) {
		_, err := NewProvider("/nonexistent/config.json")
		assert.Error(t, err)
	})

	t.Run("非法JSON返回错误", func(t *testing.T) {
		path := writeConfigFile(t, `{not json`)
		_, err := NewProvider(path)
		assert.Error(t, err)
	})

	t.Run("不一致的配置在装载时fail-fast", func(t *testing.T) {
		// 处理时限大于验证时限
		path := writeConfigFile(t, `{
			"consensus": {
				"validation": {
					"validation_timeout": "1s",
					"processing_timeout": "5s"
				}
			}
		}`)
		_, err := NewProvider(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "共识配置非法")
	})
}
