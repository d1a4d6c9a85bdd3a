package msg

import (
	"reflect"
	"testing"

	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/wire"
	"github.com/godyy/gnet"
	"github.com/matryer/is"
	"github.com/pkg/errors"
)

// roundTrip 完整走一遍编码、线上编解码、目录解码
func roundTrip(t *testing.T, m Msg) Msg {
	t.Helper()

	el, err := m.ToElement(nil)
	if err != nil {
		t.Fatalf("to element: %v", err)
	}

	p := gnet.GetPacket()
	defer gnet.PutPacket(p)
	if err := el.Encode(p); err != nil {
		t.Fatalf("encode element: %v", err)
	}

	decoded, err := wire.Decode(p)
	if err != nil {
		t.Fatalf("decode element: %v", err)
	}

	out, entry, err := Default().Decode(decoded)
	if err != nil {
		t.Fatalf("decode msg: %v", err)
	}
	if entry.Tag != m.Tag() {
		t.Fatalf("entry tag %q, want %q", entry.Tag, m.Tag())
	}
	return out
}

func checkRoundTrip(t *testing.T, m Msg) {
	t.Helper()

	out := roundTrip(t, m)
	if !reflect.DeepEqual(out, m) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", out, m)
	}
}

func TestClientMsgRoundTrip(t *testing.T) {
	msgs := []Msg{
		&Move{UnitId: "unit:1", Direction: game.Direction("NE")},
		&Attack{UnitId: "unit:1", Direction: game.Direction("S")},
		&BuildColony{UnitId: "unit:1", Name: "New Amsterdam"},
		&Work{UnitId: "unit:1", WorkType: "farmer"},
		&SetDestination{UnitId: "unit:1", Destination: "colony:2"},
		&SetDestination{UnitId: "unit:1"},
		&BuyGoods{CarrierId: "unit:3", Goods: "tools", Amount: 25},
		&SellGoods{CarrierId: "unit:3", Goods: "furs", Amount: 100},
		&DeclareIndependence{NationName: "Freedonia", CountryName: "Sylvania"},
		&EndTurn{},
		&AssignTradeRoute{UnitId: "unit:3", RouteId: "route:1"},
		&AssignTradeRoute{UnitId: "unit:3"},
		&Chat{Sender: "player:1", Message: "hello", Private: true},
		&Logout{Reason: "quit"},
		&Disconnect{},
	}

	for _, m := range msgs {
		checkRoundTrip(t, m)
	}
}

func TestUpdateTradeRouteRoundTrip(t *testing.T) {
	route := &game.TradeRoute{
		Id:    "route:1",
		Owner: "player:1",
		Name:  "fur run",
		Stops: []*game.TradeStop{
			{Location: "colony:1", Cargo: []string{"furs", "tools"}},
			{Location: "colony:2"},
		},
	}

	checkRoundTrip(t, &UpdateTradeRoute{Route: route})
	checkRoundTrip(t, &UpdateTradeRoute{})
}

func TestUpdateTradeRouteWrongChild(t *testing.T) {
	el := wire.NewElement(TagUpdateTradeRoute)
	el.AddChild(wire.NewElement("unit"))

	m := &UpdateTradeRoute{}
	if err := m.FromElement(el); !wire.IsCorrupt(err) {
		t.Fatalf("want corrupt error on wrong child tag, got %v", err)
	}
}

func TestServerMsgRoundTrip(t *testing.T) {
	msgs := []Msg{
		&Error{TemplateId: "server.noSuchUnit", Message: "no such unit"},
		&Error{Message: "plain failure"},
		&AddPlayer{Players: []*game.Player{game.NewPlayer("player:1", "alice", "dutch")}},
		&RemovePlayer{PlayerId: "player:1"},
		&Update{Objects: []game.Object{
			&game.Unit{Id: "unit:1", Owner: "player:1", Type: "scout", X: 3, Y: 4, MovesLeft: 2},
			&game.Colony{Id: "colony:1", Owner: "player:1", Name: "Roanoke", X: 5, Y: 6, Population: 3},
		}},
		&Partial{ObjectId: "unit:1", Attrs: map[string]string{"movesLeft": "0", "x": "4"}},
		&Remove{ObjectIds: []string{"unit:1", "colony:2"}},
		&SetCurrentPlayer{PlayerId: "player:2"},
		&NewTurn{Turn: 17},
		&SetDead{PlayerId: "player:1"},
		&Stance{Stance: "war", First: "player:1", Second: "player:2"},
		&AnimateMove{UnitId: "unit:1", FromX: 3, FromY: 4, ToX: 4, ToY: 4},
		&AnimateMove{UnitId: "unit:1", FromX: 3, FromY: 4, ToX: 4, ToY: 4,
			Unit: &game.Unit{Id: "unit:1", Owner: "player:1", Type: "scout", X: 4, Y: 4, MovesLeft: 1}},
		&AnimateAttack{AttackerId: "unit:1", DefenderId: "unit:2", Success: true},
		&GameEnded{WinnerId: "player:2"},
		&CloseMenus{},
		&SetAI{PlayerId: "player:1", AI: true},
	}

	for _, m := range msgs {
		checkRoundTrip(t, m)
	}
}

func TestRegistryUnknownTag(t *testing.T) {
	el := wire.NewElement("bogus")
	if _, _, err := Default().Decode(el); !wire.IsCorrupt(err) {
		t.Fatalf("want corrupt error on unknown tag, got %v", err)
	}
}

func TestRegistryGating(t *testing.T) {
	is := is.New(t)

	gated := []string{
		TagMove, TagAttack, TagBuildColony, TagWork, TagSetDestination,
		TagBuyGoods, TagSellGoods, TagDeclareIndependence, TagEndTurn,
		TagUpdateTradeRoute, TagAssignTradeRoute,
	}
	for _, tag := range gated {
		entry := Default().Lookup(tag)
		is.True(entry != nil)
		is.True(entry.CurrentPlayerOnly)
	}

	ungated := []string{TagChat, TagLogout, TagDisconnect, TagUpdate, TagError}
	for _, tag := range ungated {
		entry := Default().Lookup(tag)
		is.True(entry != nil)
		is.True(!entry.CurrentPlayerOnly)
	}
}

func TestPriorityOrderValues(t *testing.T) {
	is := is.New(t)

	is.True(PriorityEarly < PriorityAttribute)
	is.True(PriorityAttribute < PriorityPartial)
	is.True(PriorityPartial < PriorityStance)
	is.True(PriorityStance < PriorityNormal)
	is.True(PriorityNormal < PriorityRemove)
	is.True(PriorityRemove < PriorityLate)
	is.True(PriorityLate < PriorityLast)

	// 覆盖式消息先于移除，动画先于一切
	is.Equal((&AddPlayer{}).Priority(), PriorityEarly)
	is.Equal((&SetDead{}).Priority(), PriorityAttribute)
	is.Equal((&Remove{}).Priority(), PriorityRemove)
	is.Equal((&CloseMenus{}).Priority(), PriorityLast)
}

func TestMergeKeys(t *testing.T) {
	is := is.New(t)

	a := &Partial{ObjectId: "unit:1"}
	b := &Partial{ObjectId: "unit:1"}
	c := &Partial{ObjectId: "unit:2"}

	is.Equal(a.MergeKey(), b.MergeKey())
	is.True(a.MergeKey() != c.MergeKey())

	is.Equal((&CloseMenus{}).MergeKey(), (&CloseMenus{}).MergeKey())
}

func TestAsClientError(t *testing.T) {
	is := is.New(t)

	ce, ok := AsClientError(ClientErrorf("unit %q not found", "unit:9"))
	is.True(ok)
	is.Equal(ce.Reason, `unit "unit:9" not found`)

	wrapped := errors.WithMessage(ClientErrorf("not your turn"), "dispatch")
	_, ok = AsClientError(wrapped)
	is.True(ok)

	_, ok = AsClientError(errors.New("io failure"))
	is.True(!ok)
}

func TestPartialReservedIdKey(t *testing.T) {
	is := is.New(t)

	// Attrs里的"id"是保留键，编码时丢弃，不允许覆盖对象ID
	m := roundTrip(t, &Partial{
		ObjectId: "unit:1",
		Attrs:    map[string]string{"id": "unit:666", "movesLeft": "0"},
	}).(*Partial)

	is.Equal(m.ObjectId, "unit:1")
	is.Equal(m.Attrs, map[string]string{"movesLeft": "0"})
}
