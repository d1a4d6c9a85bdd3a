package server

import (
	"sync"
)

const MetaDriverMemory = "memory"

// MemoryMetaDriver 进程内的公示信息驱动，用于单机部署和测试
type MemoryMetaDriver struct {
	mtx     sync.Mutex
	servers map[string]*ServerInfo
}

func NewMemoryMetaDriver() *MemoryMetaDriver {
	return &MemoryMetaDriver{
		servers: map[string]*ServerInfo{},
	}
}

func (d *MemoryMetaDriver) SaveServer(info *ServerInfo) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	si := *info
	d.servers[info.Id] = &si
	return nil
}

func (d *MemoryMetaDriver) RemoveServer(serverId string) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	delete(d.servers, serverId)
	return nil
}

func (d *MemoryMetaDriver) ListServers() ([]*ServerInfo, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	infos := make([]*ServerInfo, 0, len(d.servers))
	for _, info := range d.servers {
		si := *info
		infos = append(infos, &si)
	}
	return infos, nil
}
