package server

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

const MetaDriverRedis = "redis"

type RedisMetaConfig struct {
	// redis服务地址
	// 非cluster模式读取[0]
	Addr []string `yaml:"Addr" toml:"Addr"`

	// redis服务密码
	Password string `yaml:"Password" toml:"Password"`

	// redis服务器数据库编号
	DB int `yaml:"DB" toml:"DB"`

	// redis客户端连接池大小
	PoolSize int `yaml:"PoolSize" toml:"PoolSize"`

	// 是否cluster模式
	IsCluster bool `yaml:"IsCluster" toml:"IsCluster"`

	// 用于读写服务器公示信息的redis-key
	KeyOfServerInfo string `yaml:"KeyOfServerInfo" toml:"KeyOfServerInfo"`
}

type RedisMetaDriver struct {
	config   *RedisMetaConfig
	redisCli redis.UniversalClient
	ctx      context.Context
}

func NewRedisMetaDriver(config *RedisMetaConfig) *RedisMetaDriver {
	d := &RedisMetaDriver{
		config: config,
		ctx:    context.Background(),
	}

	if config.IsCluster {
		d.redisCli = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    config.Addr,
			Password: config.Password,
			PoolSize: config.PoolSize,
		})
	} else {
		d.redisCli = redis.NewClient(&redis.Options{
			Addr:     config.Addr[0],
			Password: config.Password,
			DB:       config.DB,
			PoolSize: config.PoolSize,
		})
	}

	return d
}

func (d *RedisMetaDriver) SaveServer(info *ServerInfo) error {
	siBytes, err := json.Marshal(info)
	if err != nil {
		return err
	}
	_, err = d.redisCli.HSet(d.ctx, d.config.KeyOfServerInfo, info.Id, string(siBytes)).Result()
	return err
}

func (d *RedisMetaDriver) RemoveServer(serverId string) error {
	_, err := d.redisCli.HDel(d.ctx, d.config.KeyOfServerInfo, serverId).Result()
	return err
}

func (d *RedisMetaDriver) ListServers() ([]*ServerInfo, error) {
	siMap, err := d.redisCli.HGetAll(d.ctx, d.config.KeyOfServerInfo).Result()
	if err != nil {
		return nil, err
	}

	infos := make([]*ServerInfo, 0, len(siMap))
	for _, siString := range siMap {
		info := &ServerInfo{}
		if err := json.Unmarshal(([]byte)(siString), info); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
