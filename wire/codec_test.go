package wire

import (
	"testing"

	"github.com/godyy/gnet"
	"github.com/matryer/is"
)

func encodeDecode(t *testing.T, el *Element) *Element {
	t.Helper()

	p := gnet.GetPacket()
	defer gnet.PutPacket(p)

	if err := el.Encode(p); err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := Decode(p)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestCodecRoundTrip(t *testing.T) {
	is := is.New(t)

	el := NewElement("move")
	el.SetAttr("unit", "unit:1")
	el.SetAttr("direction", "NE")

	out := encodeDecode(t, el)
	is.Equal(out.Tag, "move")
	is.Equal(out.Attr("unit", ""), "unit:1")
	is.Equal(out.Attr("direction", ""), "NE")
	is.Equal(out.AttrCount(), 2)
	is.Equal(len(out.Children), 0)
}

func TestCodecRoundTripChildren(t *testing.T) {
	is := is.New(t)

	el := NewElement("update")
	first := NewElement("unit")
	first.SetAttr("id", "unit:1")
	second := NewElement("colony")
	second.SetAttr("id", "colony:1")
	second.AddChild(NewElement("stock"))
	el.AddChildren([]*Element{first, second})

	out := encodeDecode(t, el)
	is.Equal(len(out.Children), 2)
	// 子元素顺序保持编码时的列表顺序
	is.Equal(out.Children[0].Tag, "unit")
	is.Equal(out.Children[1].Tag, "colony")
	is.Equal(out.Children[1].Children[0].Tag, "stock")
}

// drainBytes 逐字节读空packet
func drainBytes(t *testing.T, p *gnet.Packet) []byte {
	t.Helper()

	data := make([]byte, 0, p.Readable())
	for p.Readable() > 0 {
		b, err := p.ReadInt8()
		if err != nil {
			t.Fatalf("read byte: %v", err)
		}
		data = append(data, byte(b))
	}
	return data
}

func TestCodecDeterministic(t *testing.T) {
	is := is.New(t)

	build := func(order []string) []byte {
		el := NewElement("partial")
		for _, k := range order {
			el.SetAttr(k, k+"-value")
		}
		p := gnet.GetPacket()
		defer gnet.PutPacket(p)
		if err := el.Encode(p); err != nil {
			t.Fatalf("encode: %v", err)
		}
		return drainBytes(t, p)
	}

	a := build([]string{"x", "y", "movesLeft"})
	b := build([]string{"movesLeft", "y", "x"})
	is.Equal(a, b)
}

func TestDecodeTruncated(t *testing.T) {
	el := NewElement("chat")
	el.SetAttr("message", "hello there")

	p := gnet.GetPacket()
	defer gnet.PutPacket(p)
	if err := el.Encode(p); err != nil {
		t.Fatalf("encode: %v", err)
	}

	data := drainBytes(t, p)
	truncated := gnet.GetPacket()
	defer gnet.PutPacket(truncated)
	for _, b := range data[:len(data)-3] {
		if err := truncated.WriteInt8(int8(b)); err != nil {
			t.Fatalf("write byte: %v", err)
		}
	}

	if _, err := Decode(truncated); !IsCorrupt(err) {
		t.Fatalf("want corrupt error, got %v", err)
	}
}

func TestDecodeExpect(t *testing.T) {
	el := NewElement("endTurn")

	p := gnet.GetPacket()
	defer gnet.PutPacket(p)
	if err := el.Encode(p); err != nil {
		t.Fatalf("encode: %v", err)
	}

	if _, err := DecodeExpect(p, "move"); !IsCorrupt(err) {
		t.Fatalf("want corrupt error on tag mismatch, got %v", err)
	}
}

func TestEncodeEmptyTag(t *testing.T) {
	p := gnet.GetPacket()
	defer gnet.PutPacket(p)

	if err := NewElement("").Encode(p); err == nil {
		t.Fatal("want error on empty tag")
	}
}
