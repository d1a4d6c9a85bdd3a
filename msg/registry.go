package msg

import (
	"fmt"

	"github.com/godyy/gcolony/wire"
)

// Entry 消息类型的注册信息
// 每个方向的处理能力是注册期事实，由server/client/ai各自的
// 处理器表描述，这里只保留与路由和鉴权相关的数据。
type Entry struct {
	// Tag 线上标签
	Tag string

	// New 构造器，无属性的简单消息返回零值即可
	New func() Msg

	// CurrentPlayerOnly 是否仅限当前回合玩家发送
	CurrentPlayerOnly bool
}

// Registry 消息注册表
// 启动期一次性构建，此后只读，按引用传递给编解码与分发方。
type Registry struct {
	entries map[string]*Entry
}

// NewRegistry 构建注册表
// 标签重复或构造器与标签不符均属编程错误，直接panic。
func NewRegistry(entries ...*Entry) *Registry {
	r := &Registry{entries: make(map[string]*Entry, len(entries))}
	for _, e := range entries {
		if e.Tag == "" || e.New == nil {
			panic(fmt.Errorf("register entry without tag or constructor"))
		}
		if got := e.New().Tag(); got != e.Tag {
			panic(fmt.Errorf("entry %q: constructor builds %q", e.Tag, got))
		}
		if _, ok := r.entries[e.Tag]; ok {
			panic(fmt.Errorf("duplicate entry of tag %q", e.Tag))
		}
		r.entries[e.Tag] = e
	}
	return r
}

// Lookup 按标签查询注册信息，未注册返回nil
func (r *Registry) Lookup(tag string) *Entry {
	return r.entries[tag]
}

// Decode 将线上元素解码为对应的消息实例
// 标签未注册意味着版本不匹配或数据损坏，按结构损坏处理。
func (r *Registry) Decode(el *wire.Element) (Msg, *Entry, error) {
	entry := r.entries[el.Tag]
	if entry == nil {
		return nil, nil, wire.Corruptf(nil, "unregistered message tag %q", el.Tag)
	}

	m := entry.New()
	if err := m.FromElement(el); err != nil {
		return nil, nil, err
	}
	return m, entry, nil
}

var defaultRegistry = NewRegistry(
	// client -> server
	&Entry{Tag: TagMove, New: func() Msg { return &Move{} }, CurrentPlayerOnly: true},
	&Entry{Tag: TagAttack, New: func() Msg { return &Attack{} }, CurrentPlayerOnly: true},
	&Entry{Tag: TagBuildColony, New: func() Msg { return &BuildColony{} }, CurrentPlayerOnly: true},
	&Entry{Tag: TagWork, New: func() Msg { return &Work{} }, CurrentPlayerOnly: true},
	&Entry{Tag: TagSetDestination, New: func() Msg { return &SetDestination{} }, CurrentPlayerOnly: true},
	&Entry{Tag: TagBuyGoods, New: func() Msg { return &BuyGoods{} }, CurrentPlayerOnly: true},
	&Entry{Tag: TagSellGoods, New: func() Msg { return &SellGoods{} }, CurrentPlayerOnly: true},
	&Entry{Tag: TagDeclareIndependence, New: func() Msg { return &DeclareIndependence{} }, CurrentPlayerOnly: true},
	&Entry{Tag: TagEndTurn, New: func() Msg { return &EndTurn{} }, CurrentPlayerOnly: true},
	&Entry{Tag: TagUpdateTradeRoute, New: func() Msg { return &UpdateTradeRoute{} }, CurrentPlayerOnly: true},
	&Entry{Tag: TagAssignTradeRoute, New: func() Msg { return &AssignTradeRoute{} }, CurrentPlayerOnly: true},
	&Entry{Tag: TagChat, New: func() Msg { return &Chat{} }},
	&Entry{Tag: TagLogout, New: func() Msg { return &Logout{} }},
	&Entry{Tag: TagDisconnect, New: func() Msg { return &Disconnect{} }},

	// server -> client
	&Entry{Tag: TagError, New: func() Msg { return &Error{} }},
	&Entry{Tag: TagAddPlayer, New: func() Msg { return &AddPlayer{} }},
	&Entry{Tag: TagRemovePlayer, New: func() Msg { return &RemovePlayer{} }},
	&Entry{Tag: TagUpdate, New: func() Msg { return &Update{} }},
	&Entry{Tag: TagPartial, New: func() Msg { return &Partial{} }},
	&Entry{Tag: TagRemove, New: func() Msg { return &Remove{} }},
	&Entry{Tag: TagSetCurrentPlayer, New: func() Msg { return &SetCurrentPlayer{} }},
	&Entry{Tag: TagNewTurn, New: func() Msg { return &NewTurn{} }},
	&Entry{Tag: TagSetDead, New: func() Msg { return &SetDead{} }},
	&Entry{Tag: TagStance, New: func() Msg { return &Stance{} }},
	&Entry{Tag: TagAnimateMove, New: func() Msg { return &AnimateMove{} }},
	&Entry{Tag: TagAnimateAttack, New: func() Msg { return &AnimateAttack{} }},
	&Entry{Tag: TagGameEnded, New: func() Msg { return &GameEnded{} }},
	&Entry{Tag: TagCloseMenus, New: func() Msg { return &CloseMenus{} }},
	&Entry{Tag: TagSetAI, New: func() Msg { return &SetAI{} }},
)

// Default 默认注册表，覆盖完整的消息目录
func Default() *Registry {
	return defaultRegistry
}
