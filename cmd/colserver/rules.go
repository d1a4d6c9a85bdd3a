package main

import (
	"sort"
	"strconv"

	"github.com/godyy/gcolony/change"
	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/msg"
	"github.com/google/uuid"
)

const (
	startMoves  = 3 // 每回合的移动点数
	startGold   = 100
	goodsPrice  = 2 // demo里所有货物同价
	defaultType = "pioneer"
)

// basicRules 内置的演示规则
// 实现协议层要求的规则回调，覆盖完整的消息目录，但刻意保持
// 规则本身的简单。调用发生在服务端的分发流程内，无需加锁。
type basicRules struct {
	g *game.Game
}

func newBasicRules(g *game.Game) *basicRules {
	return &basicRules{g: g}
}

func (r *basicRules) Login(userName string, version string) (*game.Player, *change.Set, error) {
	// 重连沿用原玩家
	for _, p := range r.g.Players() {
		if p.Name == userName {
			return p, nil, nil
		}
	}

	player := game.NewPlayer(uuid.NewString(), userName, "dutch")
	player.Gold = startGold
	r.g.AddPlayer(player)

	unit := &game.Unit{
		Id:        uuid.NewString(),
		Owner:     player.Id,
		Type:      defaultType,
		MovesLeft: startMoves,
	}
	r.g.AddUnit(unit)
	player.Reveal(unit.Id)

	cs := change.NewSet().
		Add(change.SeeAll(), &msg.AddPlayer{Players: []*game.Player{player}}).
		Add(change.SeeAll(), &msg.Update{Objects: []game.Object{unit}})

	if r.g.CurrentPlayer() == nil {
		r.g.SetCurrentPlayer(player.Id)
		cs.Add(change.SeeAll(), &msg.SetCurrentPlayer{PlayerId: player.Id})
	}

	return player, cs, nil
}

func (r *basicRules) Logout(player *game.Player, reason string) (*change.Set, error) {
	cs := change.NewSet()

	if cp := r.g.CurrentPlayer(); cp == player {
		cs.Merge(r.advanceTurn(player))
	}

	player.Dead = true
	cs.Add(change.SeeAll(), &msg.SetDead{PlayerId: player.Id}).
		Add(change.SeeAll(), &msg.RemovePlayer{PlayerId: player.Id})
	r.g.RemovePlayer(player.Id)
	return cs, nil
}

func (r *basicRules) Move(player *game.Player, unit *game.Unit, x, y int) (*change.Set, error) {
	fromX, fromY := unit.X, unit.Y
	unit.X, unit.Y = x, y
	unit.MovesLeft--
	player.Reveal(unit.Id)

	return change.NewSet().
		Add(change.SeeAll(), &msg.AnimateMove{
			UnitId: unit.Id,
			FromX:  fromX,
			FromY:  fromY,
			ToX:    x,
			ToY:    y,
			Unit:   unit,
		}).
		Add(change.SeeOnly(player), &msg.Partial{
			ObjectId: unit.Id,
			Attrs:    map[string]string{"movesLeft": strconv.Itoa(unit.MovesLeft)},
		}), nil
}

func (r *basicRules) Attack(player *game.Player, attacker *game.Unit, defender *game.Unit) (*change.Set, error) {
	// demo里进攻方永远获胜
	attacker.MovesLeft = 0
	r.g.Remove(defender.Id)

	return change.NewSet().
		Add(change.SeeAll(), &msg.AnimateAttack{
			AttackerId: attacker.Id,
			DefenderId: defender.Id,
			Success:    true,
		}).
		Add(change.SeeAll(), &msg.Remove{ObjectIds: []string{defender.Id}}).
		Add(change.SeeOnly(player), &msg.Partial{
			ObjectId: attacker.Id,
			Attrs:    map[string]string{"movesLeft": "0"},
		}), nil
}

func (r *basicRules) BuildColony(player *game.Player, unit *game.Unit, name string) (*change.Set, error) {
	colony := &game.Colony{
		Id:         uuid.NewString(),
		Owner:      player.Id,
		Name:       name,
		X:          unit.X,
		Y:          unit.Y,
		Population: 1,
	}
	r.g.AddColony(colony)
	player.Reveal(colony.Id)
	unit.MovesLeft = 0

	return change.NewSet().
		Add(change.SeeAll(), &msg.Update{Objects: []game.Object{colony}}).
		Add(change.SeeOnly(player), &msg.Partial{
			ObjectId: unit.Id,
			Attrs:    map[string]string{"movesLeft": "0"},
		}), nil
}

func (r *basicRules) Work(player *game.Player, unit *game.Unit, workType string) (*change.Set, error) {
	// demo把工种直接体现为单位类型
	unit.Type = workType
	return change.NewSet().
		Add(change.SeeAll(), &msg.Update{Objects: []game.Object{unit}}), nil
}

func (r *basicRules) SetDestination(player *game.Player, unit *game.Unit, destination string) (*change.Set, error) {
	unit.Destination = destination
	return change.NewSet().
		Add(change.SeeOnly(player), &msg.Partial{
			ObjectId: unit.Id,
			Attrs:    map[string]string{"destination": destination},
		}), nil
}

func (r *basicRules) BuyGoods(player *game.Player, carrier *game.Unit, goods string, amount int) (*change.Set, error) {
	cost := amount * goodsPrice
	if player.Gold < cost {
		return nil, msg.ClientErrorf("not enough gold")
	}
	player.Gold -= cost

	return change.NewSet().
		Add(change.SeeOnly(player), &msg.Partial{
			ObjectId: player.Id,
			Attrs:    map[string]string{"gold": strconv.Itoa(player.Gold)},
		}), nil
}

func (r *basicRules) SellGoods(player *game.Player, carrier *game.Unit, goods string, amount int) (*change.Set, error) {
	player.Gold += amount * goodsPrice

	return change.NewSet().
		Add(change.SeeOnly(player), &msg.Partial{
			ObjectId: player.Id,
			Attrs:    map[string]string{"gold": strconv.Itoa(player.Gold)},
		}), nil
}

func (r *basicRules) DeclareIndependence(player *game.Player, nationName, countryName string) (*change.Set, error) {
	player.Nation = nationName

	cs := change.NewSet().
		Add(change.SeeAll(), &msg.Update{Objects: []game.Object{player}})

	// 宣布独立后与其他所有玩家进入战争状态
	for _, other := range r.g.Players() {
		if other == player {
			continue
		}
		r.g.SetStance(player.Id, other.Id, "war")
		cs.Add(change.SeeAll(), &msg.Stance{Stance: "war", First: player.Id, Second: other.Id})
	}

	return cs, nil
}

func (r *basicRules) EndTurn(player *game.Player) (*change.Set, error) {
	return r.advanceTurn(player), nil
}

func (r *basicRules) UpdateTradeRoute(player *game.Player, route *game.TradeRoute) (*change.Set, error) {
	if route.Id == "" {
		route.Id = uuid.NewString()
	}
	r.g.AddTradeRoute(route)
	player.Reveal(route.Id)

	return change.NewSet().
		Add(change.SeeOnly(player), &msg.Update{Objects: []game.Object{route}}), nil
}

func (r *basicRules) AssignTradeRoute(player *game.Player, unit *game.Unit, route *game.TradeRoute) (*change.Set, error) {
	if route != nil {
		unit.TradeRoute = route.Id
	} else {
		unit.TradeRoute = ""
	}

	return change.NewSet().
		Add(change.SeeOnly(player), &msg.Partial{
			ObjectId: unit.Id,
			Attrs:    map[string]string{"tradeRoute": unit.TradeRoute},
		}), nil
}

// advanceTurn 轮换到下一位玩家，并在所有人都行动过后推进回合
func (r *basicRules) advanceTurn(current *game.Player) *change.Set {
	ids := make([]string, 0, len(r.g.Players()))
	for id := range r.g.Players() {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if len(ids) == 0 {
		return change.NewSet()
	}

	idx := 0
	for i, id := range ids {
		if id == current.Id {
			idx = i
			break
		}
	}

	next := r.g.FindPlayer(ids[(idx+1)%len(ids)])
	r.g.SetCurrentPlayer(next.Id)

	cs := change.NewSet().
		Add(change.SeeOnly(current), &msg.CloseMenus{}).
		Add(change.SeeAll(), &msg.SetCurrentPlayer{PlayerId: next.Id})

	if (idx+1)%len(ids) == 0 {
		r.g.SetTurn(r.g.Turn() + 1)
		cs.Add(change.SeeAll(), &msg.NewTurn{Turn: r.g.Turn()})
	}

	// 重置下一位玩家的移动点数
	for _, u := range r.unitsOf(next.Id) {
		u.MovesLeft = startMoves
		cs.Add(change.SeeOnly(next), &msg.Partial{
			ObjectId: u.Id,
			Attrs:    map[string]string{"movesLeft": strconv.Itoa(u.MovesLeft)},
		})
	}

	return cs
}

func (r *basicRules) unitsOf(playerId string) []*game.Unit {
	var units []*game.Unit
	for _, u := range r.g.Units() {
		if u.Owner == playerId {
			units = append(units, u)
		}
	}
	return units
}
