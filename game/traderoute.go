package game

import (
	"github.com/godyy/gcolony/wire"
	"github.com/pkg/errors"
)

const (
	TagTradeRoute     = "tradeRoute"
	TagTradeRouteStop = "tradeRouteStop"
)

// TradeStop 贸易航线的一站
type TradeStop struct {
	// Location 停靠地点的对象ID（殖民地等）
	Location string

	// Cargo 在该站装载的货物类型，有序
	Cargo []string
}

func (s *TradeStop) toElement() *wire.Element {
	el := wire.NewElement(TagTradeRouteStop)
	el.SetAttr("location", s.Location)
	el.SetListAttr("cargo", s.Cargo)
	return el
}

func tradeStopFromElement(el *wire.Element) (*TradeStop, error) {
	if el.Tag != TagTradeRouteStop {
		return nil, wire.Corruptf(nil, "unexpected tag %q, want %q", el.Tag, TagTradeRouteStop)
	}
	location, ok := el.LookupAttr("location")
	if !ok {
		return nil, wire.Corruptf(nil, "trade stop without location")
	}
	return &TradeStop{
		Location: location,
		Cargo:    el.ListAttr("cargo"),
	}, nil
}

// TradeRoute 贸易航线
// 站点列表有语义顺序，编解码均不得重排。
type TradeRoute struct {
	Id    string
	Owner string
	Name  string
	Stops []*TradeStop
}

func (r *TradeRoute) ObjectId() string { return r.Id }

func (r *TradeRoute) ObjectTag() string { return TagTradeRoute }

func (r *TradeRoute) ToElement(dst *Player) *wire.Element {
	el := wire.NewElement(TagTradeRoute)
	el.SetAttr("id", r.Id)
	el.SetAttr("owner", r.Owner)
	el.SetAttr("name", r.Name)
	for _, s := range r.Stops {
		el.AddChild(s.toElement())
	}
	return el
}

func TradeRouteFromElement(el *wire.Element) (*TradeRoute, error) {
	if el.Tag != TagTradeRoute {
		return nil, wire.Corruptf(nil, "unexpected tag %q, want %q", el.Tag, TagTradeRoute)
	}
	id, ok := el.LookupAttr("id")
	if !ok {
		return nil, wire.Corruptf(nil, "trade route element without id")
	}
	r := &TradeRoute{
		Id:    id,
		Owner: el.Attr("owner", ""),
		Name:  el.Attr("name", ""),
	}
	for i, c := range el.Children {
		s, err := tradeStopFromElement(c)
		if err != nil {
			return nil, errors.WithMessagef(err, "decode stop %d", i)
		}
		r.Stops = append(r.Stops, s)
	}
	return r, nil
}
