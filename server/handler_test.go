package server

import (
	"testing"

	"github.com/godyy/gcolony/change"
	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/msg"
	"github.com/godyy/gcolony/session"
	"github.com/godyy/gcolony/wire"
	"github.com/godyy/gutils/log"
)

// stubRules 记录规则回调的调用，返回预置结果
type stubRules struct {
	calls []string
	lastX int
	lastY int
	cs    *change.Set
	err   error
}

func (r *stubRules) record(name string) (*change.Set, error) {
	r.calls = append(r.calls, name)
	return r.cs, r.err
}

func (r *stubRules) Login(userName, version string) (*game.Player, *change.Set, error) {
	r.calls = append(r.calls, "login")
	return nil, nil, r.err
}

func (r *stubRules) Logout(player *game.Player, reason string) (*change.Set, error) {
	return r.record("logout")
}

func (r *stubRules) Move(player *game.Player, unit *game.Unit, x, y int) (*change.Set, error) {
	r.lastX, r.lastY = x, y
	return r.record("move")
}

func (r *stubRules) Attack(player *game.Player, attacker, defender *game.Unit) (*change.Set, error) {
	return r.record("attack")
}

func (r *stubRules) BuildColony(player *game.Player, unit *game.Unit, name string) (*change.Set, error) {
	return r.record("buildColony")
}

func (r *stubRules) Work(player *game.Player, unit *game.Unit, workType string) (*change.Set, error) {
	return r.record("work")
}

func (r *stubRules) SetDestination(player *game.Player, unit *game.Unit, destination string) (*change.Set, error) {
	return r.record("setDestination")
}

func (r *stubRules) BuyGoods(player *game.Player, carrier *game.Unit, goods string, amount int) (*change.Set, error) {
	return r.record("buyGoods")
}

func (r *stubRules) SellGoods(player *game.Player, carrier *game.Unit, goods string, amount int) (*change.Set, error) {
	return r.record("sellGoods")
}

func (r *stubRules) DeclareIndependence(player *game.Player, nationName, countryName string) (*change.Set, error) {
	return r.record("declareIndependence")
}

func (r *stubRules) EndTurn(player *game.Player) (*change.Set, error) {
	return r.record("endTurn")
}

func (r *stubRules) UpdateTradeRoute(player *game.Player, route *game.TradeRoute) (*change.Set, error) {
	return r.record("updateTradeRoute")
}

func (r *stubRules) AssignTradeRoute(player *game.Player, unit *game.Unit, route *game.TradeRoute) (*change.Set, error) {
	return r.record("assignTradeRoute")
}

func (r *stubRules) lastCall() string {
	if len(r.calls) == 0 {
		return ""
	}
	return r.calls[len(r.calls)-1]
}

type dispatchEnv struct {
	s     *Server
	rules *stubRules
	g     *game.Game
	p1    *game.Player
	p2    *game.Player
	c1    *Conn
	c2    *Conn
}

func newDispatchEnv(t *testing.T) *dispatchEnv {
	t.Helper()

	logger, err := log.CreateLogger(&log.Config{
		Level:           log.WarnLevel,
		EnableCaller:    false,
		Development:     true,
		EnableStdOutput: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	config := &Config{
		Name: "colserver_test",
		Addr: ":0",
		Session: session.Config{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			SendQueueSize:   16,
			MaxPacketSize:   64 * 1024,
		},
	}

	rules := &stubRules{}
	g := game.NewGame(8, 8)
	s, err := NewServer(config, Params{
		Game:    g,
		PreGame: rules,
		InGame:  rules,
		Logger:  logger,
	})
	if err != nil {
		t.Fatal(err)
	}

	p1 := game.NewPlayer("player:1", "alice", "dutch")
	p2 := game.NewPlayer("player:2", "bob", "french")
	g.AddPlayer(p1)
	g.AddPlayer(p2)
	g.SetCurrentPlayer(p1.Id)

	return &dispatchEnv{
		s:     s,
		rules: rules,
		g:     g,
		p1:    p1,
		p2:    p2,
		c1:    newConn("token-1", s, p1, nil, s.logger),
		c2:    newConn("token-2", s, p2, nil, s.logger),
	}
}

func (e *dispatchEnv) dispatch(t *testing.T, c *Conn, m msg.Msg) (*change.Set, error) {
	t.Helper()

	entry := msg.Default().Lookup(m.Tag())
	if entry == nil {
		t.Fatalf("unregistered tag %q", m.Tag())
	}
	return e.s.dispatch(c, entry, m)
}

func wantClientError(t *testing.T, err error) *msg.ClientError {
	t.Helper()

	ce, ok := msg.AsClientError(err)
	if !ok {
		t.Fatalf("want client error, got %v", err)
	}
	return ce
}

func TestDispatchTurnGate(t *testing.T) {
	e := newDispatchEnv(t)

	_, err := e.dispatch(t, e.c2, &msg.EndTurn{})
	ce := wantClientError(t, err)
	if ce.Reason != "not your turn" {
		t.Fatalf("reason %q", ce.Reason)
	}
	if len(e.rules.calls) != 0 {
		t.Fatalf("rules called: %v", e.rules.calls)
	}

	if _, err := e.dispatch(t, e.c1, &msg.EndTurn{}); err != nil {
		t.Fatal(err)
	}
	if e.rules.lastCall() != "endTurn" {
		t.Fatalf("last call %q", e.rules.lastCall())
	}

	// 聊天不受回合限制
	if _, err := e.dispatch(t, e.c2, &msg.Chat{Message: "hi"}); err != nil {
		t.Fatal(err)
	}
}

func TestDispatchUnhandledTag(t *testing.T) {
	e := newDispatchEnv(t)

	// update只由服务端发出，不在服务端的处理表里
	_, err := e.dispatch(t, e.c1, &msg.Update{})
	wantClientError(t, err)
}

func TestDispatchMove(t *testing.T) {
	e := newDispatchEnv(t)

	_, err := e.dispatch(t, e.c1, &msg.Move{UnitId: "unit:9", Direction: game.DirectionE})
	wantClientError(t, err)

	e.g.AddUnit(&game.Unit{Id: "unit:2", Owner: e.p2.Id, X: 1, Y: 1, MovesLeft: 1})
	_, err = e.dispatch(t, e.c1, &msg.Move{UnitId: "unit:2", Direction: game.DirectionE})
	wantClientError(t, err)

	e.g.AddUnit(&game.Unit{Id: "unit:1", Owner: e.p1.Id, X: 3, Y: 3})
	_, err = e.dispatch(t, e.c1, &msg.Move{UnitId: "unit:1", Direction: game.DirectionE})
	wantClientError(t, err)

	e.g.FindUnit("unit:1").MovesLeft = 2
	_, err = e.dispatch(t, e.c1, &msg.Move{UnitId: "unit:1", Direction: game.Direction("UP")})
	wantClientError(t, err)

	e.g.FindUnit("unit:1").X, e.g.FindUnit("unit:1").Y = 0, 0
	_, err = e.dispatch(t, e.c1, &msg.Move{UnitId: "unit:1", Direction: game.DirectionW})
	wantClientError(t, err)

	if len(e.rules.calls) != 0 {
		t.Fatalf("rules called on invalid moves: %v", e.rules.calls)
	}

	e.g.FindUnit("unit:1").X, e.g.FindUnit("unit:1").Y = 3, 3
	if _, err := e.dispatch(t, e.c1, &msg.Move{UnitId: "unit:1", Direction: game.DirectionNE}); err != nil {
		t.Fatal(err)
	}
	if e.rules.lastCall() != "move" {
		t.Fatalf("last call %q", e.rules.lastCall())
	}
	if e.rules.lastX != 4 || e.rules.lastY != 2 {
		t.Fatalf("move target (%d,%d)", e.rules.lastX, e.rules.lastY)
	}
}

func TestDispatchAttack(t *testing.T) {
	e := newDispatchEnv(t)
	e.g.AddUnit(&game.Unit{Id: "unit:1", Owner: e.p1.Id, X: 3, Y: 3, MovesLeft: 1})

	_, err := e.dispatch(t, e.c1, &msg.Attack{UnitId: "unit:1", Direction: game.DirectionE})
	wantClientError(t, err)

	e.g.AddUnit(&game.Unit{Id: "unit:own", Owner: e.p1.Id, X: 4, Y: 3})
	_, err = e.dispatch(t, e.c1, &msg.Attack{UnitId: "unit:1", Direction: game.DirectionE})
	wantClientError(t, err)

	e.g.AddUnit(&game.Unit{Id: "unit:2", Owner: e.p2.Id, X: 3, Y: 2})
	if _, err := e.dispatch(t, e.c1, &msg.Attack{UnitId: "unit:1", Direction: game.DirectionN}); err != nil {
		t.Fatal(err)
	}
	if e.rules.lastCall() != "attack" {
		t.Fatalf("last call %q", e.rules.lastCall())
	}
}

func TestDispatchBuildColony(t *testing.T) {
	e := newDispatchEnv(t)
	e.g.AddUnit(&game.Unit{Id: "unit:1", Owner: e.p1.Id, X: 3, Y: 3, MovesLeft: 1})

	_, err := e.dispatch(t, e.c1, &msg.BuildColony{UnitId: "unit:1"})
	wantClientError(t, err)

	e.g.AddColony(&game.Colony{Id: "colony:1", Owner: e.p2.Id, X: 3, Y: 3})
	_, err = e.dispatch(t, e.c1, &msg.BuildColony{UnitId: "unit:1", Name: "Roanoke"})
	wantClientError(t, err)

	e.g.Remove("colony:1")
	if _, err := e.dispatch(t, e.c1, &msg.BuildColony{UnitId: "unit:1", Name: "Roanoke"}); err != nil {
		t.Fatal(err)
	}
	if e.rules.lastCall() != "buildColony" {
		t.Fatalf("last call %q", e.rules.lastCall())
	}
}

func TestDispatchSetDestination(t *testing.T) {
	e := newDispatchEnv(t)
	e.g.AddUnit(&game.Unit{Id: "unit:1", Owner: e.p1.Id, X: 3, Y: 3})

	_, err := e.dispatch(t, e.c1, &msg.SetDestination{UnitId: "unit:1", Destination: "colony:9"})
	wantClientError(t, err)

	// 清除目的地无需校验
	if _, err := e.dispatch(t, e.c1, &msg.SetDestination{UnitId: "unit:1"}); err != nil {
		t.Fatal(err)
	}

	e.g.AddColony(&game.Colony{Id: "colony:1", Owner: e.p1.Id, X: 5, Y: 5})
	if _, err := e.dispatch(t, e.c1, &msg.SetDestination{UnitId: "unit:1", Destination: "colony:1"}); err != nil {
		t.Fatal(err)
	}
}

func TestDispatchTrade(t *testing.T) {
	e := newDispatchEnv(t)
	e.g.AddUnit(&game.Unit{Id: "unit:1", Owner: e.p1.Id, X: 3, Y: 3})

	_, err := e.dispatch(t, e.c1, &msg.BuyGoods{CarrierId: "unit:1", Goods: "", Amount: 5})
	wantClientError(t, err)
	_, err = e.dispatch(t, e.c1, &msg.BuyGoods{CarrierId: "unit:1", Goods: "tools", Amount: 0})
	wantClientError(t, err)
	_, err = e.dispatch(t, e.c1, &msg.SellGoods{CarrierId: "unit:1", Goods: "furs", Amount: -3})
	wantClientError(t, err)

	if _, err := e.dispatch(t, e.c1, &msg.BuyGoods{CarrierId: "unit:1", Goods: "tools", Amount: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.dispatch(t, e.c1, &msg.SellGoods{CarrierId: "unit:1", Goods: "furs", Amount: 5}); err != nil {
		t.Fatal(err)
	}
}

func TestDispatchTradeRoutes(t *testing.T) {
	e := newDispatchEnv(t)
	e.g.AddUnit(&game.Unit{Id: "unit:1", Owner: e.p1.Id})

	_, err := e.dispatch(t, e.c1, &msg.UpdateTradeRoute{})
	wantClientError(t, err)

	e.g.AddTradeRoute(&game.TradeRoute{Id: "route:2", Owner: e.p2.Id})
	_, err = e.dispatch(t, e.c1, &msg.UpdateTradeRoute{Route: &game.TradeRoute{Id: "route:2"}})
	wantClientError(t, err)

	route := &game.TradeRoute{Id: "route:1", Name: "fur run"}
	if _, err := e.dispatch(t, e.c1, &msg.UpdateTradeRoute{Route: route}); err != nil {
		t.Fatal(err)
	}
	if route.Owner != e.p1.Id {
		t.Fatalf("route owner %q", route.Owner)
	}

	_, err = e.dispatch(t, e.c1, &msg.AssignTradeRoute{UnitId: "unit:1", RouteId: "route:9"})
	wantClientError(t, err)
	_, err = e.dispatch(t, e.c1, &msg.AssignTradeRoute{UnitId: "unit:1", RouteId: "route:2"})
	wantClientError(t, err)

	e.g.AddTradeRoute(&game.TradeRoute{Id: "route:1", Owner: e.p1.Id})
	if _, err := e.dispatch(t, e.c1, &msg.AssignTradeRoute{UnitId: "unit:1", RouteId: "route:1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.dispatch(t, e.c1, &msg.AssignTradeRoute{UnitId: "unit:1"}); err != nil {
		t.Fatal(err)
	}
}

func TestDispatchChat(t *testing.T) {
	e := newDispatchEnv(t)

	_, err := e.dispatch(t, e.c2, &msg.Chat{})
	wantClientError(t, err)

	// 发送者以连接绑定的玩家为准
	cs, err := e.dispatch(t, e.c2, &msg.Chat{Sender: "player:1", Message: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	out := cs.Flatten(e.p1)
	if len(out) != 1 {
		t.Fatalf("flatten %d msgs", len(out))
	}
	chat := out[0].(*msg.Chat)
	if chat.Sender != e.p2.Id || chat.Message != "hello" {
		t.Fatalf("chat %+v", chat)
	}
}

func TestDispatchLogout(t *testing.T) {
	e := newDispatchEnv(t)

	e.s.conns[e.p2.Id] = e.c2

	if _, err := e.dispatch(t, e.c2, &msg.Logout{Reason: "quit"}); err != nil {
		t.Fatal(err)
	}
	if e.rules.lastCall() != "logout" {
		t.Fatalf("last call %q", e.rules.lastCall())
	}
	if e.s.GetConn(e.p2.Id) != nil {
		t.Fatal("conn still registered after logout")
	}

	// 底层会话随后上报关闭，不触发第二次登出
	e.s.onConnClosed(e.c2)
	if got := len(e.rules.calls); got != 1 {
		t.Fatalf("logout called %d times", got)
	}
}

func TestDispatchDisconnect(t *testing.T) {
	e := newDispatchEnv(t)

	e.s.conns[e.p2.Id] = e.c2

	cs, err := e.dispatch(t, e.c2, &msg.Disconnect{})
	if err != nil {
		t.Fatal(err)
	}
	if !cs.Empty() {
		t.Fatal("disconnect should not produce changes")
	}
	if e.s.GetConn(e.p2.Id) != nil {
		t.Fatal("conn still registered after disconnect")
	}
}

func TestCorruptElementCleansUpConn(t *testing.T) {
	e := newDispatchEnv(t)

	e.s.conns[e.p2.Id] = e.c2
	e.c2.state = connStarted

	err := e.s.onConnElement(e.c2, wire.NewElement("bogus"))
	if !wire.IsCorrupt(err) {
		t.Fatalf("want corrupt error, got %v", err)
	}
	if e.c2.state != connClosed {
		t.Fatal("conn not closed")
	}
	if e.s.GetConn(e.p2.Id) != nil {
		t.Fatal("conn still registered after corrupt element")
	}
	if e.rules.lastCall() != "logout" {
		t.Fatalf("last call %q", e.rules.lastCall())
	}
}

func TestInactiveConnCleansUp(t *testing.T) {
	e := newDispatchEnv(t)

	e.s.conns[e.p1.Id] = e.c1
	e.c1.state = connStarted

	// activeAt停留在零值，视作早已超时
	e.c1.onInactiveTimer()

	if e.c1.state != connClosed {
		t.Fatal("conn not closed")
	}
	if e.s.GetConn(e.p1.Id) != nil {
		t.Fatal("conn still registered after inactive timeout")
	}
	if e.rules.lastCall() != "logout" {
		t.Fatalf("last call %q", e.rules.lastCall())
	}
}
