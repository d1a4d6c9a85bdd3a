package msg

import (
	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/wire"
	"github.com/pkg/errors"
)

// 客户端发往服务端的请求消息标签
const (
	TagMove                = "move"
	TagAttack              = "attack"
	TagBuildColony         = "buildColony"
	TagWork                = "work"
	TagSetDestination      = "setDestination"
	TagBuyGoods            = "buyGoods"
	TagSellGoods           = "sellGoods"
	TagDeclareIndependence = "declareIndependence"
	TagEndTurn             = "endTurn"
	TagUpdateTradeRoute    = "updateTradeRoute"
	TagAssignTradeRoute    = "assignTradeRoute"
	TagChat                = "chat"
	TagLogout              = "logout"
	TagDisconnect          = "disconnect"
)

// Move 单位移动请求
type Move struct {
	UnitId    string
	Direction game.Direction
}

func (m *Move) Tag() string { return TagMove }

func (m *Move) Priority() Priority { return PriorityNormal }

func (m *Move) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagMove)
	el.SetAttr("unit", m.UnitId)
	el.SetAttr("direction", string(m.Direction))
	return el, nil
}

func (m *Move) FromElement(el *wire.Element) error {
	m.UnitId = el.Attr("unit", "")
	m.Direction = wire.EnumAttr(el, "direction", game.Directions, game.Direction(""))
	return nil
}

// Attack 单位攻击请求，攻击目标由方向指定
type Attack struct {
	UnitId    string
	Direction game.Direction
}

func (m *Attack) Tag() string { return TagAttack }

func (m *Attack) Priority() Priority { return PriorityNormal }

func (m *Attack) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagAttack)
	el.SetAttr("unit", m.UnitId)
	el.SetAttr("direction", string(m.Direction))
	return el, nil
}

func (m *Attack) FromElement(el *wire.Element) error {
	m.UnitId = el.Attr("unit", "")
	m.Direction = wire.EnumAttr(el, "direction", game.Directions, game.Direction(""))
	return nil
}

// BuildColony 单位就地建立殖民地
type BuildColony struct {
	UnitId string
	Name   string
}

func (m *BuildColony) Tag() string { return TagBuildColony }

func (m *BuildColony) Priority() Priority { return PriorityNormal }

func (m *BuildColony) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagBuildColony)
	el.SetAttr("unit", m.UnitId)
	el.SetAttr("name", m.Name)
	return el, nil
}

func (m *BuildColony) FromElement(el *wire.Element) error {
	m.UnitId = el.Attr("unit", "")
	m.Name = el.Attr("name", "")
	return nil
}

// Work 调整单位的工作类型
type Work struct {
	UnitId   string
	WorkType string
}

func (m *Work) Tag() string { return TagWork }

func (m *Work) Priority() Priority { return PriorityNormal }

func (m *Work) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagWork)
	el.SetAttr("unit", m.UnitId)
	el.SetAttr("workType", m.WorkType)
	return el, nil
}

func (m *Work) FromElement(el *wire.Element) error {
	m.UnitId = el.Attr("unit", "")
	m.WorkType = el.Attr("workType", "")
	return nil
}

// SetDestination 设定或清除单位的移动目的地
type SetDestination struct {
	UnitId string

	// Destination 目的地对象ID，空表示清除
	Destination string
}

func (m *SetDestination) Tag() string { return TagSetDestination }

func (m *SetDestination) Priority() Priority { return PriorityNormal }

func (m *SetDestination) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagSetDestination)
	el.SetAttr("unit", m.UnitId)
	if m.Destination != "" {
		el.SetAttr("destination", m.Destination)
	}
	return el, nil
}

func (m *SetDestination) FromElement(el *wire.Element) error {
	m.UnitId = el.Attr("unit", "")
	m.Destination = el.Attr("destination", "")
	return nil
}

// BuyGoods 购买货物装船
type BuyGoods struct {
	CarrierId string
	Goods     string
	Amount    int
}

func (m *BuyGoods) Tag() string { return TagBuyGoods }

func (m *BuyGoods) Priority() Priority { return PriorityNormal }

func (m *BuyGoods) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagBuyGoods)
	el.SetAttr("carrier", m.CarrierId)
	el.SetAttr("goods", m.Goods)
	el.SetIntAttr("amount", m.Amount)
	return el, nil
}

func (m *BuyGoods) FromElement(el *wire.Element) error {
	m.CarrierId = el.Attr("carrier", "")
	m.Goods = el.Attr("goods", "")
	m.Amount = el.IntAttr("amount", 0)
	return nil
}

// SellGoods 卸货出售
type SellGoods struct {
	CarrierId string
	Goods     string
	Amount    int
}

func (m *SellGoods) Tag() string { return TagSellGoods }

func (m *SellGoods) Priority() Priority { return PriorityNormal }

func (m *SellGoods) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagSellGoods)
	el.SetAttr("carrier", m.CarrierId)
	el.SetAttr("goods", m.Goods)
	el.SetIntAttr("amount", m.Amount)
	return el, nil
}

func (m *SellGoods) FromElement(el *wire.Element) error {
	m.CarrierId = el.Attr("carrier", "")
	m.Goods = el.Attr("goods", "")
	m.Amount = el.IntAttr("amount", 0)
	return nil
}

// DeclareIndependence 宣布独立
type DeclareIndependence struct {
	NationName  string
	CountryName string
}

func (m *DeclareIndependence) Tag() string { return TagDeclareIndependence }

func (m *DeclareIndependence) Priority() Priority { return PriorityNormal }

func (m *DeclareIndependence) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagDeclareIndependence)
	el.SetAttr("nationName", m.NationName)
	el.SetAttr("countryName", m.CountryName)
	return el, nil
}

func (m *DeclareIndependence) FromElement(el *wire.Element) error {
	m.NationName = el.Attr("nationName", "")
	m.CountryName = el.Attr("countryName", "")
	return nil
}

// EndTurn 结束当前回合，无负载
type EndTurn struct{}

func (m *EndTurn) Tag() string { return TagEndTurn }

func (m *EndTurn) Priority() Priority { return PriorityNormal }

func (m *EndTurn) ToElement(dst *game.Player) (*wire.Element, error) {
	return wire.NewElement(TagEndTurn), nil
}

func (m *EndTurn) FromElement(el *wire.Element) error { return nil }

// UpdateTradeRoute 新建或整体更新一条贸易航线
// 航线作为单个可选子元素携带；缺失时由处理器拒绝。
type UpdateTradeRoute struct {
	Route *game.TradeRoute
}

func (m *UpdateTradeRoute) Tag() string { return TagUpdateTradeRoute }

func (m *UpdateTradeRoute) Priority() Priority { return PriorityNormal }

func (m *UpdateTradeRoute) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagUpdateTradeRoute)
	if m.Route != nil {
		el.AddChild(m.Route.ToElement(dst))
	}
	return el, nil
}

func (m *UpdateTradeRoute) FromElement(el *wire.Element) error {
	c, err := el.OptionalChild(game.TagTradeRoute)
	if err != nil {
		return err
	}
	if c == nil {
		m.Route = nil
		return nil
	}
	route, err := game.TradeRouteFromElement(c)
	if err != nil {
		return errors.WithMessage(err, "decode route")
	}
	m.Route = route
	return nil
}

// AssignTradeRoute 为单位指派贸易航线
type AssignTradeRoute struct {
	UnitId string

	// RouteId 空表示解除指派
	RouteId string
}

func (m *AssignTradeRoute) Tag() string { return TagAssignTradeRoute }

func (m *AssignTradeRoute) Priority() Priority { return PriorityNormal }

func (m *AssignTradeRoute) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagAssignTradeRoute)
	el.SetAttr("unit", m.UnitId)
	if m.RouteId != "" {
		el.SetAttr("route", m.RouteId)
	}
	return el, nil
}

func (m *AssignTradeRoute) FromElement(el *wire.Element) error {
	m.UnitId = el.Attr("unit", "")
	m.RouteId = el.Attr("route", "")
	return nil
}

// Chat 聊天
// 客户端发出时sender留空，由服务端填充后转发。
type Chat struct {
	Sender  string
	Message string
	Private bool
}

func (m *Chat) Tag() string { return TagChat }

func (m *Chat) Priority() Priority { return PriorityNormal }

func (m *Chat) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagChat)
	if m.Sender != "" {
		el.SetAttr("sender", m.Sender)
	}
	el.SetAttr("message", m.Message)
	if m.Private {
		el.SetBoolAttr("private", true)
	}
	return el, nil
}

func (m *Chat) FromElement(el *wire.Element) error {
	m.Sender = el.Attr("sender", "")
	m.Message = el.Attr("message", "")
	m.Private = el.BoolAttr("private", false)
	return nil
}

// Logout 退出对局
type Logout struct {
	Reason string
}

func (m *Logout) Tag() string { return TagLogout }

func (m *Logout) Priority() Priority { return PriorityNormal }

func (m *Logout) ToElement(dst *game.Player) (*wire.Element, error) {
	el := wire.NewElement(TagLogout)
	if m.Reason != "" {
		el.SetAttr("reason", m.Reason)
	}
	return el, nil
}

func (m *Logout) FromElement(el *wire.Element) error {
	m.Reason = el.Attr("reason", "")
	return nil
}

// Disconnect 断开连接通告，双向，无负载
type Disconnect struct{}

func (m *Disconnect) Tag() string { return TagDisconnect }

func (m *Disconnect) Priority() Priority { return PriorityLast }

func (m *Disconnect) ToElement(dst *game.Player) (*wire.Element, error) {
	return wire.NewElement(TagDisconnect), nil
}

func (m *Disconnect) FromElement(el *wire.Element) error { return nil }
