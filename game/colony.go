package game

import (
	"fmt"
	"strconv"

	"github.com/godyy/gcolony/wire"
)

const TagColony = "colony"

// Colony 殖民地
type Colony struct {
	Id    string
	Owner string
	Name  string
	X     int
	Y     int

	// Population 只对归属玩家序列化
	Population int
}

func (c *Colony) ObjectId() string { return c.Id }

func (c *Colony) ObjectTag() string { return TagColony }

func (c *Colony) ToElement(dst *Player) *wire.Element {
	el := wire.NewElement(TagColony)
	el.SetAttr("id", c.Id)
	el.SetAttr("owner", c.Owner)
	el.SetAttr("name", c.Name)
	el.SetIntAttr("x", c.X)
	el.SetIntAttr("y", c.Y)
	if dst == nil || dst.Id == c.Owner {
		el.SetIntAttr("population", c.Population)
	}
	return el
}

// applyPartial 按属性名落地增量补丁，属性名与ToElement一致
func (c *Colony) applyPartial(attrs map[string]string) error {
	for k, v := range attrs {
		switch k {
		case "owner":
			c.Owner = v
		case "name":
			c.Name = v
		case "population":
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("colony %q: bad population %q", c.Id, v)
			}
			c.Population = n
		default:
			return fmt.Errorf("colony %q: partial update of unknown attr %q", c.Id, k)
		}
	}
	return nil
}

func ColonyFromElement(el *wire.Element) (*Colony, error) {
	if el.Tag != TagColony {
		return nil, wire.Corruptf(nil, "unexpected tag %q, want %q", el.Tag, TagColony)
	}
	id, ok := el.LookupAttr("id")
	if !ok {
		return nil, wire.Corruptf(nil, "colony element without id")
	}
	return &Colony{
		Id:         id,
		Owner:      el.Attr("owner", ""),
		Name:       el.Attr("name", ""),
		X:          el.IntAttr("x", 0),
		Y:          el.IntAttr("y", 0),
		Population: el.IntAttr("population", 0),
	}, nil
}
