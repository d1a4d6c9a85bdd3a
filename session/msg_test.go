package session

import (
	"encoding/binary"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/godyy/gcolony/wire"
	"github.com/godyy/gnet"
)

func encodeDecode(t *testing.T, m Msg) Msg {
	t.Helper()

	p, err := EncodeMsg(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	defer gnet.PutPacket(p)

	out, err := DecodeMsg(p)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestMsgEncodeDecode(t *testing.T) {
	msgs := []Msg{
		&MsgLogin{UserName: "alice", Version: "0.1.0"},
		&MsgLogin{},
		&MsgLoginAck{PlayerId: "player:1", Token: "tok-123"},
		&MsgLoginReject{Reason: "server full"},
		&MsgHeartbeat{Ping: true},
		&MsgHeartbeat{},
	}

	for _, m := range msgs {
		out := encodeDecode(t, m)
		if !reflect.DeepEqual(out, m) {
			t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", out, m)
		}
	}
}

func TestMsgPayloadEncodeDecode(t *testing.T) {
	el := wire.NewElement("chat")
	el.SetAttr("sender", "player:1")
	el.SetAttr("message", "hello")

	out := encodeDecode(t, &MsgPayload{Element: el})
	payload, ok := out.(*MsgPayload)
	if !ok {
		t.Fatalf("want *MsgPayload, got %T", out)
	}
	if payload.Element.Tag != "chat" {
		t.Fatalf("payload tag %q", payload.Element.Tag)
	}
	if v := payload.Element.Attr("message", ""); v != "hello" {
		t.Fatalf("payload message %q", v)
	}
}

func TestDecodeInvalidMsgType(t *testing.T) {
	p := gnet.GetPacket()
	defer gnet.PutPacket(p)
	if err := p.WriteInt8(99); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeMsg(p); err == nil {
		t.Fatal("want error on invalid msg type")
	}
}

func TestReadWriteMessage(t *testing.T) {
	cli, srv := net.Pipe()
	defer cli.Close()
	defer srv.Close()

	wErr := make(chan error, 1)
	go func() {
		wErr <- WriteMessage(cli, &MsgLogin{UserName: "alice", Version: "0.1.0"}, time.Second)
	}()

	m, err := ReadMessage(srv, time.Second)
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	if err := <-wErr; err != nil {
		t.Fatalf("write message: %v", err)
	}

	login, ok := m.(*MsgLogin)
	if !ok {
		t.Fatalf("want *MsgLogin, got %T", m)
	}
	if login.UserName != "alice" || login.Version != "0.1.0" {
		t.Fatalf("unexpected login %+v", login)
	}
}

func TestReadMessageTimeout(t *testing.T) {
	cli, srv := net.Pipe()
	defer cli.Close()
	defer srv.Close()

	if _, err := ReadMessage(srv, 50*time.Millisecond); err == nil {
		t.Fatal("want timeout error")
	}
}

func TestConfigOption(t *testing.T) {
	cfg := &Config{
		HeartbeatTimeout: 10000,
		InactiveTimeout:  60000,
		ReadTimeout:      30000,
		WriteTimeout:     10000,
		ReadBufferSize:   16 * 1024,
		WriteBufferSize:  16 * 1024,
		SendQueueSize:    64,
		MaxPacketSize:    64 * 1024,
	}

	if cfg.GetHeartbeatTimeout() != 10*time.Second {
		t.Fatalf("heartbeat timeout %v", cfg.GetHeartbeatTimeout())
	}
	if cfg.GetInactiveTimeout() != time.Minute {
		t.Fatalf("inactive timeout %v", cfg.GetInactiveTimeout())
	}
	if cfg.CreateOption() == nil {
		t.Fatal("nil session option")
	}
}

func TestConfigCheckDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Check()

	if cfg.HeartbeatTimeout <= 0 || cfg.InactiveTimeout <= 0 ||
		cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		t.Fatalf("timeouts not defaulted: %+v", cfg)
	}
	if cfg.ReadBufferSize <= 0 || cfg.WriteBufferSize <= 0 ||
		cfg.SendQueueSize <= 0 || cfg.MaxPacketSize <= 0 {
		t.Fatalf("sizes not defaulted: %+v", cfg)
	}

	// CreateOption在缺省配置下必须可用
	if cfg.CreateOption() == nil {
		t.Fatal("nil session option")
	}

	// 已配置的字段不被覆盖
	cfg = &Config{HeartbeatTimeout: 1234, ReadBufferSize: 512}
	cfg.Check()
	if cfg.HeartbeatTimeout != 1234 || cfg.ReadBufferSize != 512 {
		t.Fatalf("configured fields overwritten: %+v", cfg)
	}
}

func TestReadMessageLenOverLimited(t *testing.T) {
	cli, srv := net.Pipe()
	defer cli.Close()
	defer srv.Close()

	go func() {
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], 1<<30)
		cli.Write(buf[:])
	}()

	if _, err := ReadMessage(srv, time.Second); err != errMessageLenOverLimited {
		t.Fatalf("want %v, got %v", errMessageLenOverLimited, err)
	}

	cli2, srv2 := net.Pipe()
	defer cli2.Close()
	defer srv2.Close()

	go func() {
		var buf [4]byte
		cli2.Write(buf[:])
	}()

	if _, err := ReadMessage(srv2, time.Second); err != errMessageLenOverLimited {
		t.Fatalf("want %v, got %v", errMessageLenOverLimited, err)
	}
}
