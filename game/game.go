package game

import (
	"fmt"

	"github.com/godyy/gcolony/wire"
)

// Object 可随消息传输的领域对象快照
// 消息只持有快照或对象ID，权威状态始终归属模型。
type Object interface {
	ObjectId() string
	ObjectTag() string

	// ToElement 编码为子元素
	// dst为目的玩家，用于在序列化边界上做可见性裁剪；
	// dst为nil表示服务端完整视图。
	ToElement(dst *Player) *wire.Element
}

// ObjectFromElement 依据标签解码领域对象快照
// 标签未注册属结构损坏。
func ObjectFromElement(el *wire.Element) (Object, error) {
	switch el.Tag {
	case TagPlayer:
		return PlayerFromElement(el)
	case TagUnit:
		return UnitFromElement(el)
	case TagColony:
		return ColonyFromElement(el)
	case TagTradeRoute:
		return TradeRouteFromElement(el)
	default:
		return nil, wire.Corruptf(nil, "unknown object tag %q", el.Tag)
	}
}

// Game 游戏模型
// 协议层只读访问；对模型的互斥由调用方（每局一把锁）负责，
// 模型自身不加锁。
type Game struct {
	width  int
	height int

	players  map[string]*Player
	units    map[string]*Unit
	colonies map[string]*Colony
	routes   map[string]*TradeRoute

	currentPlayerId string
	turn            int
	stances         map[string]string
}

func NewGame(width, height int) *Game {
	return &Game{
		width:    width,
		height:   height,
		players:  map[string]*Player{},
		units:    map[string]*Unit{},
		colonies: map[string]*Colony{},
		routes:   map[string]*TradeRoute{},
	}
}

func (g *Game) Turn() int { return g.turn }

func (g *Game) SetTurn(turn int) { g.turn = turn }

func (g *Game) CurrentPlayer() *Player {
	return g.players[g.currentPlayerId]
}

func (g *Game) SetCurrentPlayer(playerId string) {
	g.currentPlayerId = playerId
}

func (g *Game) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *Game) AddPlayer(p *Player) { g.players[p.Id] = p }

func (g *Game) FindPlayer(id string) *Player { return g.players[id] }

func (g *Game) RemovePlayer(id string) { delete(g.players, id) }

func (g *Game) Players() map[string]*Player { return g.players }

func (g *Game) AddUnit(u *Unit) { g.units[u.Id] = u }

func (g *Game) FindUnit(id string) *Unit { return g.units[id] }

func (g *Game) Units() map[string]*Unit { return g.units }

func (g *Game) AddColony(c *Colony) { g.colonies[c.Id] = c }

func (g *Game) FindColony(id string) *Colony { return g.colonies[id] }

func (g *Game) AddTradeRoute(r *TradeRoute) { g.routes[r.Id] = r }

func (g *Game) FindTradeRoute(id string) *TradeRoute { return g.routes[id] }

// UnitAt 获取指定坐标上的单位，没有则返回nil
func (g *Game) UnitAt(x, y int) *Unit {
	for _, u := range g.units {
		if u.X == x && u.Y == y {
			return u
		}
	}
	return nil
}

// ColonyAt 获取指定坐标上的殖民地，没有则返回nil
func (g *Game) ColonyAt(x, y int) *Colony {
	for _, c := range g.colonies {
		if c.X == x && c.Y == y {
			return c
		}
	}
	return nil
}

// SetStance 记录两个玩家之间的外交立场，对称存储
func (g *Game) SetStance(first, second, stance string) {
	if g.stances == nil {
		g.stances = map[string]string{}
	}
	g.stances[stanceKey(first, second)] = stance
}

// Stance 查询两个玩家之间的外交立场，未记录时返回空串
func (g *Game) Stance(first, second string) string {
	return g.stances[stanceKey(first, second)]
}

func stanceKey(first, second string) string {
	if first > second {
		first, second = second, first
	}
	return first + "|" + second
}

// Remove 按ID移除任意对象
func (g *Game) Remove(id string) {
	delete(g.units, id)
	delete(g.colonies, id)
	delete(g.routes, id)
}

// ApplyPartial 按属性名将增量补丁落地到已知对象
// 未知对象或未知属性返回错误，已落地的属性不回滚。
func (g *Game) ApplyPartial(objectId string, attrs map[string]string) error {
	if u := g.units[objectId]; u != nil {
		return u.applyPartial(attrs)
	}
	if c := g.colonies[objectId]; c != nil {
		return c.applyPartial(attrs)
	}
	if p := g.players[objectId]; p != nil {
		return p.applyPartial(attrs)
	}
	return fmt.Errorf("partial update of unknown object %q", objectId)
}

// Apply 将对象快照并入模型（新增或整体替换）
// 客户端处理器用它落地服务端事件。
func (g *Game) Apply(o Object) error {
	switch v := o.(type) {
	case *Player:
		g.players[v.Id] = v
	case *Unit:
		g.units[v.Id] = v
	case *Colony:
		g.colonies[v.Id] = v
	case *TradeRoute:
		g.routes[v.Id] = v
	default:
		return fmt.Errorf("apply unsupported object %q", o.ObjectTag())
	}
	return nil
}
