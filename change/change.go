// Package change 汇集一次服务端处理产生的待发消息
// 一个ChangeSet面向多个接收方；发送前按接收方展开为独立的消息流，
// 每个流内部按优先级稳定排序，可合并消息坍缩。
package change

import (
	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/msg"
	"github.com/godyy/gutils/container/heap"
)

const (
	seeOnly = iota
	seeAll
	seePerhaps
	seeList
)

// See 一条变更的目标可见性
type See struct {
	kind     int
	playerId string
	objectId string
	players  []string
}

// SeeOnly 只发给指定玩家
func SeeOnly(p *game.Player) See {
	return See{kind: seeOnly, playerId: p.Id}
}

// SeeAll 发给所有玩家
func SeeAll() See {
	return See{kind: seeAll}
}

// SeePerhaps 发给当前能观察到指定对象的玩家
func SeePerhaps(objectId string) See {
	return See{kind: seePerhaps, objectId: objectId}
}

// SeeList 发给显式列出的玩家
func SeeList(players ...*game.Player) See {
	s := See{kind: seeList}
	for _, p := range players {
		s.players = append(s.players, p.Id)
	}
	return s
}

func (s See) visibleTo(dst *game.Player) bool {
	switch s.kind {
	case seeOnly:
		return dst.Id == s.playerId
	case seeAll:
		return true
	case seePerhaps:
		return dst.CanSee(s.objectId)
	case seeList:
		for _, id := range s.players {
			if id == dst.Id {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// pending 一条待发变更，seq记录产生顺序用于稳定排序
type pending struct {
	seq int
	see See
	m   msg.Msg
}

// Set 变更集
type Set struct {
	changes []pending
}

func NewSet() *Set {
	return &Set{}
}

// Add 追加变更，nil消息被静默过滤
func (s *Set) Add(see See, msgs ...msg.Msg) *Set {
	for _, m := range msgs {
		if m == nil {
			continue
		}
		s.changes = append(s.changes, pending{seq: len(s.changes), see: see, m: m})
	}
	return s
}

// AddClientError 追加一条只发给肇事玩家的错误通告
func (s *Set) AddClientError(p *game.Player, message string) *Set {
	return s.Add(SeeOnly(p), &msg.Error{Message: message})
}

// Merge 并入另一个变更集，保持产生顺序
func (s *Set) Merge(o *Set) *Set {
	if o == nil {
		return s
	}
	for _, c := range o.changes {
		s.changes = append(s.changes, pending{seq: len(s.changes), see: c.see, m: c.m})
	}
	return s
}

func (s *Set) Empty() bool {
	return s == nil || len(s.changes) == 0
}

// queued Flatten期间的堆元素，按(优先级, 产生顺序)排序
type queued struct {
	seq   int
	m     msg.Msg
	index int
}

func (q *queued) Less(o heap.Element) bool {
	oq := o.(*queued)
	if q.m.Priority() != oq.m.Priority() {
		return q.m.Priority() < oq.m.Priority()
	}
	return q.seq < oq.seq
}

func (q *queued) SetIndex(i int) { q.index = i }

func (q *queued) Index() int { return q.index }

// Flatten 为单个接收方展开变更集
// 过滤掉对dst不可见的变更，按优先级稳定排序，再做合并坍缩：
// 相邻的同标签可合并消息若合并键相同，保留较新的一条。
func (s *Set) Flatten(dst *game.Player) []msg.Msg {
	if s.Empty() {
		return nil
	}

	h := heap.NewHeap()
	for i := range s.changes {
		c := &s.changes[i]
		if !c.see.visibleTo(dst) {
			continue
		}
		h.Push(&queued{seq: c.seq, m: c.m, index: -1})
	}

	var out []msg.Msg
	for h.Len() > 0 {
		q := h.Top().(*queued)
		h.Pop()
		out = appendMerged(out, q.m)
	}
	return out
}

func appendMerged(out []msg.Msg, m msg.Msg) []msg.Msg {
	if len(out) > 0 {
		prev := out[len(out)-1]
		pm, ok1 := prev.(msg.Mergeable)
		cm, ok2 := m.(msg.Mergeable)
		if ok1 && ok2 && prev.Tag() == m.Tag() && pm.MergeKey() == cm.MergeKey() {
			out[len(out)-1] = m
			return out
		}
	}
	return append(out, m)
}
