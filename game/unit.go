package game

import (
	"fmt"
	"strconv"

	"github.com/godyy/gcolony/wire"
)

const TagUnit = "unit"

// Unit 作战/殖民单位
type Unit struct {
	Id    string
	Owner string
	Type  string
	X     int
	Y     int

	// 以下为归属玩家的私有信息
	MovesLeft   int
	Destination string // 可选
	TradeRoute  string // 可选，指向TradeRoute.Id
}

func (u *Unit) ObjectId() string { return u.Id }

func (u *Unit) ObjectTag() string { return TagUnit }

func (u *Unit) HasMoves() bool { return u.MovesLeft > 0 }

func (u *Unit) ToElement(dst *Player) *wire.Element {
	el := wire.NewElement(TagUnit)
	el.SetAttr("id", u.Id)
	el.SetAttr("owner", u.Owner)
	el.SetAttr("type", u.Type)
	el.SetIntAttr("x", u.X)
	el.SetIntAttr("y", u.Y)
	if dst == nil || dst.Id == u.Owner {
		el.SetIntAttr("movesLeft", u.MovesLeft)
		if u.Destination != "" {
			el.SetAttr("destination", u.Destination)
		}
		if u.TradeRoute != "" {
			el.SetAttr("tradeRoute", u.TradeRoute)
		}
	}
	return el
}

// applyPartial 按属性名落地增量补丁，属性名与ToElement一致
func (u *Unit) applyPartial(attrs map[string]string) error {
	for k, v := range attrs {
		switch k {
		case "owner":
			u.Owner = v
		case "type":
			u.Type = v
		case "x":
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("unit %q: bad x %q", u.Id, v)
			}
			u.X = n
		case "y":
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("unit %q: bad y %q", u.Id, v)
			}
			u.Y = n
		case "movesLeft":
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("unit %q: bad movesLeft %q", u.Id, v)
			}
			u.MovesLeft = n
		case "destination":
			u.Destination = v
		case "tradeRoute":
			u.TradeRoute = v
		default:
			return fmt.Errorf("unit %q: partial update of unknown attr %q", u.Id, k)
		}
	}
	return nil
}

func UnitFromElement(el *wire.Element) (*Unit, error) {
	if el.Tag != TagUnit {
		return nil, wire.Corruptf(nil, "unexpected tag %q, want %q", el.Tag, TagUnit)
	}
	id, ok := el.LookupAttr("id")
	if !ok {
		return nil, wire.Corruptf(nil, "unit element without id")
	}
	return &Unit{
		Id:          id,
		Owner:       el.Attr("owner", ""),
		Type:        el.Attr("type", ""),
		X:           el.IntAttr("x", 0),
		Y:           el.IntAttr("y", 0),
		MovesLeft:   el.IntAttr("movesLeft", 0),
		Destination: el.Attr("destination", ""),
		TradeRoute:  el.Attr("tradeRoute", ""),
	}, nil
}
