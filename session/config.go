package session

import (
	"time"

	"github.com/godyy/gnet"
)

// Config 网络会话相关配置
type Config struct {
	// 心跳超时 ms，只有客户端一侧需要发送心跳
	HeartbeatTimeout int `yaml:"HeartbeatTimeout" toml:"HeartbeatTimeout"`

	// 会话失效超时 ms
	InactiveTimeout int `yaml:"InactiveTimeout" toml:"InactiveTimeout"`

	// 会话读取超时 ms
	ReadTimeout int `yaml:"ReadTimeout" toml:"ReadTimeout"`

	// 会话写入超时 ms
	WriteTimeout int `yaml:"WriteTimeout" toml:"WriteTimeout"`

	// 会话读取缓冲区大小
	ReadBufferSize int `yaml:"ReadBufferSize" toml:"ReadBufferSize"`

	// 会话写入缓冲区大小
	WriteBufferSize int `yaml:"WriteBufferSize" toml:"WriteBufferSize"`

	// 会话发送队列大小
	SendQueueSize int `yaml:"SendQueueSize" toml:"SendQueueSize"`

	// 会话支持的最大包体大小
	MaxPacketSize int `yaml:"MaxPacketSize" toml:"MaxPacketSize"`
}

// 缺省配置
const (
	defaultHeartbeatTimeout = 10000
	defaultInactiveTimeout  = 60000
	defaultReadTimeout      = 30000
	defaultWriteTimeout     = 10000
	defaultReadBufferSize   = 16 * 1024
	defaultWriteBufferSize  = 16 * 1024
	defaultSendQueueSize    = 64
	defaultMaxPacketSize    = 64 * 1024
)

// Check 检查配置项，未配置的字段填充缺省值
func (c *Config) Check() {
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	if c.InactiveTimeout <= 0 {
		c.InactiveTimeout = defaultInactiveTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = defaultReadBufferSize
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = defaultWriteBufferSize
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = defaultSendQueueSize
	}
	if c.MaxPacketSize <= 0 {
		c.MaxPacketSize = defaultMaxPacketSize
	}
}

func (c *Config) GetHeartbeatTimeout() time.Duration {
	return time.Duration(c.HeartbeatTimeout) * time.Millisecond
}

func (c *Config) GetInactiveTimeout() time.Duration {
	return time.Duration(c.InactiveTimeout) * time.Millisecond
}

func (c *Config) CreateOption() *gnet.TCPSessionOption {
	return gnet.NewTCPSessionOption().
		SetReceiveTimeout(time.Duration(c.ReadTimeout) * time.Millisecond).
		SetSendTimeout(time.Duration(c.WriteTimeout) * time.Millisecond).
		SetReceiveBufferSize(c.ReadBufferSize).
		SetSendBufferSize(c.WriteBufferSize).
		SetSendQueueSize(c.SendQueueSize).
		SetMaxPacketSize(c.MaxPacketSize)
}
