package server

import (
	"errors"
	"strings"
)

// ServerInfo 对外公示的服务器信息
type ServerInfo struct {
	// 服务器ID
	Id string `json:"id"`

	// 服务器名称
	Name string `json:"name"`

	// 对外地址
	Addr string `json:"addr"`

	// 服务端版本号
	Version string `json:"version"`

	// 玩家数量上限
	Slots int `json:"slots"`

	// 当前在线玩家数
	Players int `json:"players"`

	// 最近一次更新的unix毫秒时间戳
	UpdatedAt int64 `json:"updatedAt"`
}

type MetaConfig struct {
	// 驱动类型
	// redis | memory
	DriverType string `yaml:"DriverType" toml:"DriverType"`

	// Redis驱动配置
	Redis *RedisMetaConfig `yaml:"Redis,omitempty" toml:"Redis,omitempty"`
}

// MetaDriver 服务器公示信息的读写驱动
type MetaDriver interface {
	// SaveServer 公示/刷新服务器信息
	SaveServer(info *ServerInfo) error

	// RemoveServer 撤下服务器信息
	RemoveServer(serverId string) error

	// ListServers 列举所有公示中的服务器
	ListServers() ([]*ServerInfo, error)
}

var ErrInvalidMetaDriverType = errors.New("invalid meta driver type")

// CreateMetaDriver 根据配置创建驱动
func CreateMetaDriver(config *MetaConfig) (MetaDriver, error) {
	switch strings.ToLower(config.DriverType) {
	case MetaDriverRedis:
		return NewRedisMetaDriver(config.Redis), nil
	case MetaDriverMemory:
		return NewMemoryMetaDriver(), nil
	default:
		return nil, ErrInvalidMetaDriverType
	}
}
