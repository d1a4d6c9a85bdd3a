package client

import (
	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/msg"
)

// Move 单位朝指定方向移动一格
func (c *Client) Move(unitId string, direction game.Direction) error {
	return c.SendMsg(&msg.Move{UnitId: unitId, Direction: direction})
}

// Attack 单位攻击指定方向上的敌方单位
func (c *Client) Attack(unitId string, direction game.Direction) error {
	return c.SendMsg(&msg.Attack{UnitId: unitId, Direction: direction})
}

// BuildColony 单位就地建立殖民地
func (c *Client) BuildColony(unitId, name string) error {
	return c.SendMsg(&msg.BuildColony{UnitId: unitId, Name: name})
}

// Work 设置单位的工作类型
func (c *Client) Work(unitId, workType string) error {
	return c.SendMsg(&msg.Work{UnitId: unitId, WorkType: workType})
}

// SetDestination 设置单位的移动目的地，destination为空表示清除
func (c *Client) SetDestination(unitId, destination string) error {
	return c.SendMsg(&msg.SetDestination{UnitId: unitId, Destination: destination})
}

// BuyGoods 运输单位购买货物
func (c *Client) BuyGoods(carrierId, goods string, amount int) error {
	return c.SendMsg(&msg.BuyGoods{CarrierId: carrierId, Goods: goods, Amount: amount})
}

// SellGoods 运输单位出售货物
func (c *Client) SellGoods(carrierId, goods string, amount int) error {
	return c.SendMsg(&msg.SellGoods{CarrierId: carrierId, Goods: goods, Amount: amount})
}

// DeclareIndependence 宣布独立
func (c *Client) DeclareIndependence(nationName, countryName string) error {
	return c.SendMsg(&msg.DeclareIndependence{NationName: nationName, CountryName: countryName})
}

// EndTurn 结束回合
func (c *Client) EndTurn() error {
	return c.SendMsg(&msg.EndTurn{})
}

// UpdateTradeRoute 新建或整体替换贸易路线
func (c *Client) UpdateTradeRoute(route *game.TradeRoute) error {
	return c.SendMsg(&msg.UpdateTradeRoute{Route: route})
}

// AssignTradeRoute 为单位指派贸易路线，routeId为空表示解除
func (c *Client) AssignTradeRoute(unitId, routeId string) error {
	return c.SendMsg(&msg.AssignTradeRoute{UnitId: unitId, RouteId: routeId})
}

// Chat 发送聊天，发送者字段由服务端填写
func (c *Client) Chat(message string, private bool) error {
	return c.SendMsg(&msg.Chat{Message: message, Private: private})
}

// Logout 主动登出
func (c *Client) Logout(reason string) error {
	return c.SendMsg(&msg.Logout{Reason: reason})
}

// Disconnect 通知服务端即将断开
func (c *Client) Disconnect() error {
	return c.SendMsg(&msg.Disconnect{})
}
