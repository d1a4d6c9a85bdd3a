package msg

import (
	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/wire"
	"github.com/pkg/errors"
)

// 服务端发往客户端/AI的事件消息标签
const (
	TagError            = "error"
	TagAddPlayer        = "addPlayer"
	TagRemovePlayer     = "removePlayer"
	TagUpdate           = "update"
	TagPartial          = "partial"
	TagRemove           = "remove"
	TagSetCurrentPlayer = "setCurrentPlayer"
	TagNewTurn          = "newTurn"
	TagSetDead          = "setDead"
	TagStance           = "stance"
	TagAnimateMove      = "animateMove"
	TagAnimateAttack    = "animateAttack"
	TagGameEnded        = "gameEnded"
	TagCloseMenus       = "closeMenus"
	TagSetAI            = "setAI"
)

// Error 动作被拒绝的通告，只发给肇事玩家
type Error struct {
	// TemplateId 客户端本地化模板，可选
	TemplateId string

	// Message 人类可读的错误描述
	Message string
}

func (m *Error) Tag() string { return TagError }

func (m *Error) Priority() Priority { return PriorityNormal }

func (m *Error) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagError)
	if m.TemplateId != "" {
		el.SetAttr("template", m.TemplateId)
	}
	el.SetAttr("message", m.Message)
	return el, nil
}

func (m *Error) FromElement(el *wire.Element) error {
	m.TemplateId = el.Attr("template", "")
	m.Message = el.Attr("message", "")
	return nil
}

// AddPlayer 向对端通告新玩家，携带玩家快照子元素
type AddPlayer struct {
	Players []*game.Player
}

func (m *AddPlayer) Tag() string { return TagAddPlayer }

func (m *AddPlayer) Priority() Priority { return PriorityEarly }

func (m *AddPlayer) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagAddPlayer)
	for _, p := range m.Players {
		el.AddChild(p.ToElement(dst))
	}
	return el, nil
}

func (m *AddPlayer) FromElement(el *wire.Element) error {
	m.Players = nil
	for i, c := range el.Children {
		p, err := game.PlayerFromElement(c)
		if err != nil {
			return errors.WithMessagef(err, "decode player %d", i)
		}
		m.Players = append(m.Players, p)
	}
	return nil
}

// RemovePlayer 玩家离开对局
type RemovePlayer struct {
	PlayerId string
}

func (m *RemovePlayer) Tag() string { return TagRemovePlayer }

func (m *RemovePlayer) Priority() Priority { return PriorityRemove }

func (m *RemovePlayer) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagRemovePlayer)
	el.SetAttr("player", m.PlayerId)
	return el, nil
}

func (m *RemovePlayer) FromElement(el *wire.Element) error {
	m.PlayerId = el.Attr("player", "")
	return nil
}

// Update 对象快照更新，子元素可为任意领域对象，顺序保持
type Update struct {
	Objects []game.Object
}

func (m *Update) Tag() string { return TagUpdate }

func (m *Update) Priority() Priority { return PriorityNormal }

func (m *Update) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagUpdate)
	for _, o := range m.Objects {
		el.AddChild(o.ToElement(dst))
	}
	return el, nil
}

func (m *Update) FromElement(el *wire.Element) error {
	m.Objects = nil
	for i, c := range el.Children {
		o, err := game.ObjectFromElement(c)
		if err != nil {
			return errors.WithMessagef(err, "decode object %d", i)
		}
		m.Objects = append(m.Objects, o)
	}
	return nil
}

// Partial 单对象的属性补丁
// 高频低价值更新，可合并：相邻的同对象补丁坍缩为最新一条。
type Partial struct {
	ObjectId string
	Attrs    map[string]string
}

func (m *Partial) Tag() string { return TagPartial }

func (m *Partial) Priority() Priority { return PriorityPartial }

func (m *Partial) MergeKey() uint64 { return mergeKey(TagPartial, m.ObjectId) }

func (m *Partial) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagPartial)
	el.SetAttr("id", m.ObjectId)
	for k, v := range m.Attrs {
		// "id"为保留键，不允许覆盖对象ID
		if k == "id" {
			continue
		}
		el.SetAttr(k, v)
	}
	return el, nil
}

func (m *Partial) FromElement(el *wire.Element) error {
	m.ObjectId = el.Attr("id", "")
	m.Attrs = map[string]string{}
	for _, k := range el.AttrKeys() {
		if k == "id" {
			continue
		}
		v, _ := el.LookupAttr(k)
		m.Attrs[k] = v
	}
	return nil
}

// Remove 对象从对端视野/模型中移除
type Remove struct {
	ObjectIds []string
}

func (m *Remove) Tag() string { return TagRemove }

func (m *Remove) Priority() Priority { return PriorityRemove }

func (m *Remove) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagRemove)
	el.SetListAttr("object", m.ObjectIds)
	return el, nil
}

func (m *Remove) FromElement(el *wire.Element) error {
	m.ObjectIds = el.ListAttr("object")
	return nil
}

// SetCurrentPlayer 轮转当前回合玩家
type SetCurrentPlayer struct {
	PlayerId string
}

func (m *SetCurrentPlayer) Tag() string { return TagSetCurrentPlayer }

func (m *SetCurrentPlayer) Priority() Priority { return PriorityLate }

func (m *SetCurrentPlayer) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagSetCurrentPlayer)
	el.SetAttr("player", m.PlayerId)
	return el, nil
}

func (m *SetCurrentPlayer) FromElement(el *wire.Element) error {
	m.PlayerId = el.Attr("player", "")
	return nil
}

// NewTurn 新回合开始
type NewTurn struct {
	Turn int
}

func (m *NewTurn) Tag() string { return TagNewTurn }

func (m *NewTurn) Priority() Priority { return PriorityEarly }

func (m *NewTurn) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagNewTurn)
	el.SetIntAttr("turn", m.Turn)
	return el, nil
}

func (m *NewTurn) FromElement(el *wire.Element) error {
	m.Turn = el.IntAttr("turn", 0)
	return nil
}

// SetDead 玩家死亡通告
// Attribute优先级，保证先于依赖它的Remove发出。
type SetDead struct {
	PlayerId string
}

func (m *SetDead) Tag() string { return TagSetDead }

func (m *SetDead) Priority() Priority { return PriorityAttribute }

func (m *SetDead) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagSetDead)
	el.SetAttr("player", m.PlayerId)
	return el, nil
}

func (m *SetDead) FromElement(el *wire.Element) error {
	m.PlayerId = el.Attr("player", "")
	return nil
}

// Stance 两个玩家间的外交姿态变化
type Stance struct {
	Stance string
	First  string
	Second string
}

func (m *Stance) Tag() string { return TagStance }

func (m *Stance) Priority() Priority { return PriorityStance }

func (m *Stance) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagStance)
	el.SetAttr("stance", m.Stance)
	el.SetAttr("first", m.First)
	el.SetAttr("second", m.Second)
	return el, nil
}

func (m *Stance) FromElement(el *wire.Element) error {
	m.Stance = el.Attr("stance", "")
	m.First = el.Attr("first", "")
	m.Second = el.Attr("second", "")
	return nil
}

// AnimateMove 单位移动动画
// 对端可能尚未见过该单位，此时附带单位快照作为可选子元素。
type AnimateMove struct {
	UnitId string
	FromX  int
	FromY  int
	ToX    int
	ToY    int

	// Unit 可选快照
	Unit *game.Unit
}

func (m *AnimateMove) Tag() string { return TagAnimateMove }

func (m *AnimateMove) Priority() Priority { return PriorityEarly }

func (m *AnimateMove) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagAnimateMove)
	el.SetAttr("unit", m.UnitId)
	el.SetIntAttr("fromX", m.FromX)
	el.SetIntAttr("fromY", m.FromY)
	el.SetIntAttr("toX", m.ToX)
	el.SetIntAttr("toY", m.ToY)
	if m.Unit != nil {
		el.AddChild(m.Unit.ToElement(dst))
	}
	return el, nil
}

func (m *AnimateMove) FromElement(el *wire.Element) error {
	m.UnitId = el.Attr("unit", "")
	m.FromX = el.IntAttr("fromX", 0)
	m.FromY = el.IntAttr("fromY", 0)
	m.ToX = el.IntAttr("toX", 0)
	m.ToY = el.IntAttr("toY", 0)

	c, err := el.OptionalChild(game.TagUnit)
	if err != nil {
		return err
	}
	if c == nil {
		m.Unit = nil
		return nil
	}
	u, err := game.UnitFromElement(c)
	if err != nil {
		return errors.WithMessage(err, "decode unit")
	}
	m.Unit = u
	return nil
}

// AnimateAttack 战斗动画
type AnimateAttack struct {
	AttackerId string
	DefenderId string
	Success    bool
}

func (m *AnimateAttack) Tag() string { return TagAnimateAttack }

func (m *AnimateAttack) Priority() Priority { return PriorityEarly }

func (m *AnimateAttack) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagAnimateAttack)
	el.SetAttr("attacker", m.AttackerId)
	el.SetAttr("defender", m.DefenderId)
	el.SetBoolAttr("success", m.Success)
	return el, nil
}

func (m *AnimateAttack) FromElement(el *wire.Element) error {
	m.AttackerId = el.Attr("attacker", "")
	m.DefenderId = el.Attr("defender", "")
	m.Success = el.BoolAttr("success", false)
	return nil
}

// GameEnded 对局结束
type GameEnded struct {
	WinnerId string
}

func (m *GameEnded) Tag() string { return TagGameEnded }

func (m *GameEnded) Priority() Priority { return PriorityLate }

func (m *GameEnded) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagGameEnded)
	el.SetAttr("winner", m.WinnerId)
	return el, nil
}

func (m *GameEnded) FromElement(el *wire.Element) error {
	m.WinnerId = el.Attr("winner", "")
	return nil
}

// CloseMenus 关闭客户端弹窗，永远最后发出；重复的可坍缩
type CloseMenus struct{}

func (m *CloseMenus) Tag() string { return TagCloseMenus }

func (m *CloseMenus) Priority() Priority { return PriorityLast }

func (m *CloseMenus) MergeKey() uint64 { return mergeKey(TagCloseMenus) }

func (m *CloseMenus) ToElement(dst *game.Player) (*wire.Element, error) {
	return wire.NewElement(TagCloseMenus), nil
}

func (m *CloseMenus) FromElement(el *wire.Element) error { return nil }

// SetAI 玩家的AI托管状态变化
type SetAI struct {
	PlayerId string
	AI       bool
}

func (m *SetAI) Tag() string { return TagSetAI }

func (m *SetAI) Priority() Priority { return PriorityAttribute }

func (m *SetAI) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagSetAI)
	el.SetAttr("player", m.PlayerId)
	el.SetBoolAttr("ai", m.AI)
	return el, nil
}

func (m *SetAI) FromElement(el *wire.Element) error {
	m.PlayerId = el.Attr("player", "")
	m.AI = el.BoolAttr("ai", false)
	return nil
}
