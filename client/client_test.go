package client

import (
	"testing"

	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/msg"
	"github.com/godyy/gcolony/wire"
	"github.com/godyy/gutils/log"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	logger, err := log.CreateLogger(&log.Config{
		Level:           log.WarnLevel,
		Development:     true,
		EnableStdOutput: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	c, err := NewClient(&Config{LoginTimeout: 5000}, Params{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	c.playerId = "player:1"
	return c
}

func feed(t *testing.T, c *Client, m msg.Msg) {
	t.Helper()

	el, err := m.ToElement(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.onElement(el); err != nil {
		t.Fatal(err)
	}
}

func TestOnElementMirror(t *testing.T) {
	c := newTestClient(t)

	feed(t, c, &msg.AddPlayer{Players: []*game.Player{
		game.NewPlayer("player:1", "alice", "dutch"),
		game.NewPlayer("player:2", "bob", "french"),
	}})
	if c.Me() == nil {
		t.Fatal("own player not mirrored")
	}

	feed(t, c, &msg.Update{Objects: []game.Object{
		&game.Unit{Id: "unit:1", Owner: "player:1", Type: "scout", X: 3, Y: 3, MovesLeft: 2},
	}})
	unit := c.Game().FindUnit("unit:1")
	if unit == nil {
		t.Fatal("unit not mirrored")
	}

	feed(t, c, &msg.Partial{ObjectId: "unit:1", Attrs: map[string]string{"x": "4", "movesLeft": "1"}})
	if unit.X != 4 || unit.MovesLeft != 1 {
		t.Fatalf("unit %+v", unit)
	}

	// 尚未进入视野的对象的增量更新只告警
	feed(t, c, &msg.Partial{ObjectId: "unit:unseen", Attrs: map[string]string{"x": "1"}})

	feed(t, c, &msg.SetCurrentPlayer{PlayerId: "player:2"})
	if cp := c.Game().CurrentPlayer(); cp == nil || cp.Id != "player:2" {
		t.Fatalf("current player %+v", cp)
	}

	feed(t, c, &msg.GameEnded{WinnerId: "player:2"})
	ended, winner := c.GameEnded()
	if !ended || winner != "player:2" {
		t.Fatalf("ended=%v winner=%q", ended, winner)
	}
}

func TestOnElementAnimateMove(t *testing.T) {
	c := newTestClient(t)

	feed(t, c, &msg.AnimateMove{
		UnitId: "unit:2", FromX: 1, FromY: 1, ToX: 2, ToY: 2,
		Unit: &game.Unit{Id: "unit:2", Owner: "player:2", Type: "dragoon", X: 1, Y: 1},
	})

	unit := c.Game().FindUnit("unit:2")
	if unit == nil || unit.X != 2 || unit.Y != 2 {
		t.Fatalf("unit %+v", unit)
	}
}

func TestChatAndErrorCallbacks(t *testing.T) {
	c := newTestClient(t)

	var gotSender, gotMessage string
	var gotPrivate bool
	c.SetOnChat(func(sender, message string, private bool) {
		gotSender, gotMessage, gotPrivate = sender, message, private
	})

	var gotErrMessage string
	c.SetOnError(func(templateId, message string) {
		gotErrMessage = message
	})

	feed(t, c, &msg.Chat{Sender: "player:2", Message: "hello", Private: true})
	if gotSender != "player:2" || gotMessage != "hello" || !gotPrivate {
		t.Fatalf("chat callback sender=%q message=%q private=%v", gotSender, gotMessage, gotPrivate)
	}

	feed(t, c, &msg.Error{Message: "not your turn"})
	if gotErrMessage != "not your turn" {
		t.Fatalf("error callback %q", gotErrMessage)
	}
}

func TestOnElementCorrupt(t *testing.T) {
	c := newTestClient(t)

	err := c.onElement(wire.NewElement("bogus"))
	if !wire.IsCorrupt(err) {
		t.Fatalf("want corrupt error, got %v", err)
	}
	if c.state != clientClosed {
		t.Fatal("client not closed on corrupt element")
	}
}

func TestGameEndedConcurrentRead(t *testing.T) {
	c := newTestClient(t)

	el, err := (&msg.GameEnded{WinnerId: "player:2"}).ToElement(nil)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.onElement(el); err != nil {
			t.Error(err)
		}
	}()

	// 与接收流程的写入并发读取
	for {
		if ended, winnerId := c.GameEnded(); ended {
			if winnerId != "player:2" {
				t.Errorf("winner %q", winnerId)
			}
			break
		}
	}
	<-done
}
