package msg

import (
	"github.com/cespare/xxhash/v2"
	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/wire"
)

// Priority 消息在单个批次内的发送优先级
// 同一接收方同一批次内的消息必须按优先级非降序发出。
type Priority int8

const (
	PriorityEarly Priority = iota
	PriorityAttribute
	PriorityPartial
	PriorityStance
	PriorityNormal
	PriorityRemove
	PriorityLate
	PriorityLast
)

var priorityNames = [...]string{
	PriorityEarly:     "early",
	PriorityAttribute: "attribute",
	PriorityPartial:   "partial",
	PriorityStance:    "stance",
	PriorityNormal:    "normal",
	PriorityRemove:    "remove",
	PriorityLate:      "late",
	PriorityLast:      "last",
}

func (p Priority) String() string {
	if p < 0 || int(p) >= len(priorityNames) {
		return "unknown"
	}
	return priorityNames[p]
}

// Msg 消息接口定义
// 每个消息类型对应唯一标签；优先级是类型的纯函数。
// 消息只携带对象ID或快照，不持有模型的权威引用。
type Msg interface {
	// Tag 线上标签，注册表按它路由
	Tag() string

	// Priority 发送优先级，固定于类型
	Priority() Priority

	// ToElement 编码为线上元素
	// dst为目的玩家，nil表示完整视图。
	ToElement(dst *game.Player) (*wire.Element, error)

	// FromElement 从线上元素解码
	// 可选属性缺失或无法解析时退化为默认值；结构损坏返回CorruptError。
	FromElement(el *wire.Element) error
}

// Mergeable 可合并消息
// 相邻的同类型消息若MergeKey相同，发送前可坍缩为一条（保留较新者）。
type Mergeable interface {
	Msg
	MergeKey() uint64
}

// mergeKey 由标签与合并相关属性计算合并键
func mergeKey(parts ...string) uint64 {
	d := xxhash.New()
	for _, part := range parts {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}
