package game

import (
	"fmt"
	"strconv"

	"github.com/godyy/gcolony/wire"
)

const TagPlayer = "player"

// Player 玩家
type Player struct {
	Id     string
	Name   string
	Nation string
	Dead   bool
	AI     bool

	// Gold 私有信息，只对玩家本人序列化
	Gold int

	visible map[string]struct{}
}

func NewPlayer(id, name, nation string) *Player {
	return &Player{
		Id:      id,
		Name:    name,
		Nation:  nation,
		visible: map[string]struct{}{},
	}
}

func (p *Player) ObjectId() string { return p.Id }

func (p *Player) ObjectTag() string { return TagPlayer }

// Owns 对象是否归属该玩家
func (p *Player) Owns(ownerId string) bool {
	return ownerId == p.Id
}

// Reveal 将对象纳入玩家可见集合
func (p *Player) Reveal(ids ...string) {
	if p.visible == nil {
		p.visible = map[string]struct{}{}
	}
	for _, id := range ids {
		p.visible[id] = struct{}{}
	}
}

func (p *Player) Forget(id string) {
	delete(p.visible, id)
}

// CanSee 玩家当前能否观察到指定对象
func (p *Player) CanSee(id string) bool {
	_, ok := p.visible[id]
	return ok
}

func (p *Player) ToElement(dst *Player) *wire.Element {
	el := wire.NewElement(TagPlayer)
	el.SetAttr("id", p.Id)
	el.SetAttr("username", p.Name)
	el.SetAttr("nation", p.Nation)
	if p.Dead {
		el.SetBoolAttr("dead", true)
	}
	if p.AI {
		el.SetBoolAttr("ai", true)
	}
	if dst == nil || dst.Id == p.Id {
		el.SetIntAttr("gold", p.Gold)
	}
	return el
}

// applyPartial 按属性名落地增量补丁，属性名与ToElement一致
func (p *Player) applyPartial(attrs map[string]string) error {
	for k, v := range attrs {
		switch k {
		case "username":
			p.Name = v
		case "nation":
			p.Nation = v
		case "dead":
			p.Dead = v == "true"
		case "ai":
			p.AI = v == "true"
		case "gold":
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("player %q: bad gold %q", p.Id, v)
			}
			p.Gold = n
		default:
			return fmt.Errorf("player %q: partial update of unknown attr %q", p.Id, k)
		}
	}
	return nil
}

func PlayerFromElement(el *wire.Element) (*Player, error) {
	if el.Tag != TagPlayer {
		return nil, wire.Corruptf(nil, "unexpected tag %q, want %q", el.Tag, TagPlayer)
	}
	id, ok := el.LookupAttr("id")
	if !ok {
		return nil, wire.Corruptf(nil, "player element without id")
	}
	p := NewPlayer(id, el.Attr("username", ""), el.Attr("nation", ""))
	p.Dead = el.BoolAttr("dead", false)
	p.AI = el.BoolAttr("ai", false)
	p.Gold = el.IntAttr("gold", 0)
	return p, nil
}
