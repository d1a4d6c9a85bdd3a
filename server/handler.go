package server

import (
	"fmt"

	"github.com/godyy/gcolony/change"
	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/msg"
	"github.com/godyy/gcolony/wire"
	"go.uber.org/zap"
)

// onConnElement 接收已登录连接上的线上元素
// 解码、分发、广播产生的变更。客户端错误只回给肇事连接，
// 结构损坏直接断开连接。
func (s *Server) onConnElement(c *Conn, el *wire.Element) error {
	m, entry, err := s.registry.Decode(el)
	if err != nil {
		s.logger.ErrorFields("decode element", zap.String("Tag", el.Tag), zap.Error(err))
		c.close(err)
		s.onConnClosed(c)
		return err
	}

	s.gameMtx.Lock()
	cs, err := s.dispatch(c, entry, m)
	s.gameMtx.Unlock()

	if err != nil {
		if ce, ok := msg.AsClientError(err); ok {
			s.logger.InfoFields("client error", zap.String("PlayerId", c.player.Id), zap.String("Tag", m.Tag()), zap.String("Reason", ce.Reason))
			return c.SendMsg(&msg.Error{Message: ce.Reason})
		}

		if wire.IsCorrupt(err) {
			c.close(err)
			s.onConnClosed(c)
			return err
		}

		s.logger.ErrorFields("dispatch msg", zap.String("PlayerId", c.player.Id), zap.String("Tag", m.Tag()), zap.Error(err))
		return c.SendMsg(&msg.Error{Message: "internal server error"})
	}

	if err := s.BroadcastChangeSet(cs); err != nil {
		s.logger.ErrorFields("broadcast changes", zap.String("Tag", m.Tag()), zap.Error(err))
	}

	return nil
}

// dispatch 分发消息
// 回合制动作先做回合校验，再交给对应的处理回调。调用方持有
// gameMtx。
func (s *Server) dispatch(c *Conn, entry *msg.Entry, m msg.Msg) (*change.Set, error) {
	if entry.CurrentPlayerOnly && s.g.CurrentPlayer() != c.player {
		return nil, msg.ClientErrorf("not your turn")
	}

	return s.handlers.handleMsg(s, c, m)
}

// 服务端消息处理器单例
var defaultServerHandlerTable = newServerHandlerTable()

// serverMsgCallback 服务端消息处理回调
type serverMsgCallback interface {
	tag() string
	call(*Server, *Conn, msg.Msg) (*change.Set, error)
}

// serverMsgCallbackWrapper 服务端消息处理回调包装器
type serverMsgCallbackWrapper[M msg.Msg] struct {
	callback func(*Server, *Conn, M) (*change.Set, error)
}

func (w serverMsgCallbackWrapper[M]) tag() string {
	return (*new(M)).Tag()
}

func (w serverMsgCallbackWrapper[M]) call(s *Server, c *Conn, m msg.Msg) (*change.Set, error) {
	return w.callback(s, c, m.(M))
}

func wrapServerMsgCallback[M msg.Msg](callback func(*Server, *Conn, M) (*change.Set, error)) serverMsgCallback {
	return serverMsgCallbackWrapper[M]{callback: callback}
}

// serverHandlerTable 服务端消息处理器
type serverHandlerTable struct {
	callbacks map[string]serverMsgCallback
}

func newServerHandlerTable() *serverHandlerTable {
	t := &serverHandlerTable{
		callbacks: map[string]serverMsgCallback{},
	}
	t.registerCallback(wrapServerMsgCallback(t.handleMove))
	t.registerCallback(wrapServerMsgCallback(t.handleAttack))
	t.registerCallback(wrapServerMsgCallback(t.handleBuildColony))
	t.registerCallback(wrapServerMsgCallback(t.handleWork))
	t.registerCallback(wrapServerMsgCallback(t.handleSetDestination))
	t.registerCallback(wrapServerMsgCallback(t.handleBuyGoods))
	t.registerCallback(wrapServerMsgCallback(t.handleSellGoods))
	t.registerCallback(wrapServerMsgCallback(t.handleDeclareIndependence))
	t.registerCallback(wrapServerMsgCallback(t.handleEndTurn))
	t.registerCallback(wrapServerMsgCallback(t.handleUpdateTradeRoute))
	t.registerCallback(wrapServerMsgCallback(t.handleAssignTradeRoute))
	t.registerCallback(wrapServerMsgCallback(t.handleChat))
	t.registerCallback(wrapServerMsgCallback(t.handleLogout))
	t.registerCallback(wrapServerMsgCallback(t.handleDisconnect))
	return t
}

// registerCallback 注册消息处理回调
func (t *serverHandlerTable) registerCallback(callback serverMsgCallback) {
	tag := callback.tag()
	if _, ok := t.callbacks[tag]; ok {
		panic(fmt.Errorf("duplicate serverMsgCallback of tag %q", tag))
	}
	t.callbacks[tag] = callback
}

// handleMsg 处理消息
func (t *serverHandlerTable) handleMsg(s *Server, c *Conn, m msg.Msg) (*change.Set, error) {
	callback := t.callbacks[m.Tag()]
	if callback == nil {
		return nil, msg.ClientErrorf("message %q not handled here", m.Tag())
	}

	return callback.call(s, c, m)
}

// ownedUnit 校验单位存在且归属于连接绑定的玩家
func (t *serverHandlerTable) ownedUnit(s *Server, c *Conn, unitId string) (*game.Unit, error) {
	unit := s.g.FindUnit(unitId)
	if unit == nil {
		return nil, msg.ClientErrorf("unit %q not found", unitId)
	}
	if unit.Owner != c.player.Id {
		return nil, msg.ClientErrorf("unit %q not yours", unitId)
	}
	return unit, nil
}

// handleMove move消息处理回调
func (t *serverHandlerTable) handleMove(s *Server, c *Conn, m *msg.Move) (*change.Set, error) {
	unit, err := t.ownedUnit(s, c, m.UnitId)
	if err != nil {
		return nil, err
	}

	if !unit.HasMoves() {
		return nil, msg.ClientErrorf("unit %q has no moves left", unit.Id)
	}

	if !m.Direction.Valid() {
		return nil, msg.ClientErrorf("invalid direction %q", m.Direction)
	}

	x, y := m.Direction.Step(unit.X, unit.Y)
	if !s.g.InBounds(x, y) {
		return nil, msg.ClientErrorf("move out of bounds")
	}

	return s.inGame.Move(c.player, unit, x, y)
}

// handleAttack attack消息处理回调
func (t *serverHandlerTable) handleAttack(s *Server, c *Conn, m *msg.Attack) (*change.Set, error) {
	attacker, err := t.ownedUnit(s, c, m.UnitId)
	if err != nil {
		return nil, err
	}

	if !attacker.HasMoves() {
		return nil, msg.ClientErrorf("unit %q has no moves left", attacker.Id)
	}

	if !m.Direction.Valid() {
		return nil, msg.ClientErrorf("invalid direction %q", m.Direction)
	}

	x, y := m.Direction.Step(attacker.X, attacker.Y)
	defender := s.g.UnitAt(x, y)
	if defender == nil {
		return nil, msg.ClientErrorf("nothing to attack there")
	}
	if defender.Owner == c.player.Id {
		return nil, msg.ClientErrorf("cannot attack own unit")
	}

	return s.inGame.Attack(c.player, attacker, defender)
}

// handleBuildColony buildColony消息处理回调
func (t *serverHandlerTable) handleBuildColony(s *Server, c *Conn, m *msg.BuildColony) (*change.Set, error) {
	unit, err := t.ownedUnit(s, c, m.UnitId)
	if err != nil {
		return nil, err
	}

	if m.Name == "" {
		return nil, msg.ClientErrorf("empty colony name")
	}

	if s.g.ColonyAt(unit.X, unit.Y) != nil {
		return nil, msg.ClientErrorf("colony already exists there")
	}

	return s.inGame.BuildColony(c.player, unit, m.Name)
}

// handleWork work消息处理回调
func (t *serverHandlerTable) handleWork(s *Server, c *Conn, m *msg.Work) (*change.Set, error) {
	unit, err := t.ownedUnit(s, c, m.UnitId)
	if err != nil {
		return nil, err
	}

	if m.WorkType == "" {
		return nil, msg.ClientErrorf("empty work type")
	}

	return s.inGame.Work(c.player, unit, m.WorkType)
}

// handleSetDestination setDestination消息处理回调
func (t *serverHandlerTable) handleSetDestination(s *Server, c *Conn, m *msg.SetDestination) (*change.Set, error) {
	unit, err := t.ownedUnit(s, c, m.UnitId)
	if err != nil {
		return nil, err
	}

	if m.Destination != "" && s.g.FindColony(m.Destination) == nil {
		return nil, msg.ClientErrorf("destination %q not found", m.Destination)
	}

	return s.inGame.SetDestination(c.player, unit, m.Destination)
}

// handleBuyGoods buyGoods消息处理回调
func (t *serverHandlerTable) handleBuyGoods(s *Server, c *Conn, m *msg.BuyGoods) (*change.Set, error) {
	carrier, err := t.ownedUnit(s, c, m.CarrierId)
	if err != nil {
		return nil, err
	}

	if m.Goods == "" {
		return nil, msg.ClientErrorf("empty goods type")
	}

	if m.Amount <= 0 {
		return nil, msg.ClientErrorf("invalid amount %d", m.Amount)
	}

	return s.inGame.BuyGoods(c.player, carrier, m.Goods, m.Amount)
}

// handleSellGoods sellGoods消息处理回调
func (t *serverHandlerTable) handleSellGoods(s *Server, c *Conn, m *msg.SellGoods) (*change.Set, error) {
	carrier, err := t.ownedUnit(s, c, m.CarrierId)
	if err != nil {
		return nil, err
	}

	if m.Goods == "" {
		return nil, msg.ClientErrorf("empty goods type")
	}

	if m.Amount <= 0 {
		return nil, msg.ClientErrorf("invalid amount %d", m.Amount)
	}

	return s.inGame.SellGoods(c.player, carrier, m.Goods, m.Amount)
}

// handleDeclareIndependence declareIndependence消息处理回调
func (t *serverHandlerTable) handleDeclareIndependence(s *Server, c *Conn, m *msg.DeclareIndependence) (*change.Set, error) {
	if m.NationName == "" || m.CountryName == "" {
		return nil, msg.ClientErrorf("empty nation or country name")
	}

	return s.inGame.DeclareIndependence(c.player, m.NationName, m.CountryName)
}

// handleEndTurn endTurn消息处理回调
func (t *serverHandlerTable) handleEndTurn(s *Server, c *Conn, m *msg.EndTurn) (*change.Set, error) {
	return s.inGame.EndTurn(c.player)
}

// handleUpdateTradeRoute updateTradeRoute消息处理回调
func (t *serverHandlerTable) handleUpdateTradeRoute(s *Server, c *Conn, m *msg.UpdateTradeRoute) (*change.Set, error) {
	if m.Route == nil {
		return nil, msg.ClientErrorf("missing trade route")
	}

	if old := s.g.FindTradeRoute(m.Route.Id); old != nil && old.Owner != c.player.Id {
		return nil, msg.ClientErrorf("trade route %q not yours", m.Route.Id)
	}

	m.Route.Owner = c.player.Id
	return s.inGame.UpdateTradeRoute(c.player, m.Route)
}

// handleAssignTradeRoute assignTradeRoute消息处理回调
func (t *serverHandlerTable) handleAssignTradeRoute(s *Server, c *Conn, m *msg.AssignTradeRoute) (*change.Set, error) {
	unit, err := t.ownedUnit(s, c, m.UnitId)
	if err != nil {
		return nil, err
	}

	var route *game.TradeRoute
	if m.RouteId != "" {
		route = s.g.FindTradeRoute(m.RouteId)
		if route == nil {
			return nil, msg.ClientErrorf("trade route %q not found", m.RouteId)
		}
		if route.Owner != c.player.Id {
			return nil, msg.ClientErrorf("trade route %q not yours", m.RouteId)
		}
	}

	return s.inGame.AssignTradeRoute(c.player, unit, route)
}

// handleChat chat消息处理回调
// 聊天不涉及游戏规则，发送者以连接绑定的玩家为准，直接广播。
func (t *serverHandlerTable) handleChat(s *Server, c *Conn, m *msg.Chat) (*change.Set, error) {
	if m.Message == "" {
		return nil, msg.ClientErrorf("empty chat message")
	}

	return change.NewSet().Add(change.SeeAll(), &msg.Chat{
		Sender:  c.player.Id,
		Message: m.Message,
		Private: m.Private,
	}), nil
}

// handleLogout logout消息处理回调
func (t *serverHandlerTable) handleLogout(s *Server, c *Conn, m *msg.Logout) (*change.Set, error) {
	cs, err := s.preGame.Logout(c.player, m.Reason)
	if err != nil {
		return nil, err
	}

	s.delConn(c)
	c.close(errClientDisconnect)
	return cs, nil
}

// handleDisconnect disconnect消息处理回调
func (t *serverHandlerTable) handleDisconnect(s *Server, c *Conn, m *msg.Disconnect) (*change.Set, error) {
	s.delConn(c)
	c.close(errClientDisconnect)
	return nil, nil
}
