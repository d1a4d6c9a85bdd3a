package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/godyy/gcolony/session"
	"gopkg.in/yaml.v2"
)

// Config 服务端配置
type Config struct {
	// 服务名称
	Name string `yaml:"Name" toml:"Name"`

	// 监听地址
	Addr string `yaml:"Addr" toml:"Addr"`

	// 服务端版本号，登录时与客户端版本比对
	Version string `yaml:"Version" toml:"Version"`

	// 玩家数量上限，0表示不限制
	MaxPlayers int `yaml:"MaxPlayers" toml:"MaxPlayers"`

	// 监听重试延迟 ms
	RetryDelayOfListening int32 `yaml:"RetryDelayOfListening" toml:"RetryDelayOfListening"`

	// 登录握手超时 ms
	LoginTimeout int32 `yaml:"LoginTimeout" toml:"LoginTimeout"`

	// 会话相关配置
	Session session.Config `yaml:"Session" toml:"Session"`

	// 元服务器相关配置，nil表示不对外公示
	Meta *MetaConfig `yaml:"Meta,omitempty" toml:"Meta,omitempty"`
}

func (c *Config) GetRetryDelayOfListening() time.Duration {
	return time.Duration(c.RetryDelayOfListening) * time.Millisecond
}

func (c *Config) GetLoginTimeout() time.Duration {
	return time.Duration(c.LoginTimeout) * time.Millisecond
}

// LoadConfig 根据文件扩展名加载yaml或toml格式的配置
func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}

	return config, nil
}
