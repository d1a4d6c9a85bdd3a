package server

import (
	"github.com/godyy/gcolony/change"
	"github.com/godyy/gcolony/game"
)

// PreGameController 对局外的规则回调
// 负责玩家的进入与离开，协议层只做会话管理和消息分发。
type PreGameController interface {
	// Login 玩家登录
	// 返回登录成功的玩家对象，以及需要广播的变更。登录被拒绝时
	// 返回错误，错误文本回传给客户端。
	Login(userName string, version string) (*game.Player, *change.Set, error)

	// Logout 玩家登出
	Logout(player *game.Player, reason string) (*change.Set, error)
}

// InGameController 对局内的规则回调
// 分发器完成消息解码、存在性/归属校验和回合校验之后，把动作
// 交给控制器裁决。控制器返回的变更集由协议层按可见性扇出。
type InGameController interface {
	// Move 单位朝指定坐标移动一格
	Move(player *game.Player, unit *game.Unit, x, y int) (*change.Set, error)

	// Attack 单位攻击相邻坐标上的敌方单位
	Attack(player *game.Player, attacker *game.Unit, defender *game.Unit) (*change.Set, error)

	// BuildColony 单位就地建立殖民地
	BuildColony(player *game.Player, unit *game.Unit, name string) (*change.Set, error)

	// Work 设置单位的工作类型
	Work(player *game.Player, unit *game.Unit, workType string) (*change.Set, error)

	// SetDestination 设置单位的移动目的地，destination为空表示清除
	SetDestination(player *game.Player, unit *game.Unit, destination string) (*change.Set, error)

	// BuyGoods 运输单位购买货物
	BuyGoods(player *game.Player, carrier *game.Unit, goods string, amount int) (*change.Set, error)

	// SellGoods 运输单位出售货物
	SellGoods(player *game.Player, carrier *game.Unit, goods string, amount int) (*change.Set, error)

	// DeclareIndependence 玩家宣布独立
	DeclareIndependence(player *game.Player, nationName, countryName string) (*change.Set, error)

	// EndTurn 玩家结束回合
	EndTurn(player *game.Player) (*change.Set, error)

	// UpdateTradeRoute 新建或整体替换玩家的贸易路线
	UpdateTradeRoute(player *game.Player, route *game.TradeRoute) (*change.Set, error)

	// AssignTradeRoute 为单位指派贸易路线，route为nil表示解除
	AssignTradeRoute(player *game.Player, unit *game.Unit, route *game.TradeRoute) (*change.Set, error)
}
