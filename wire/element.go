package wire

import (
	"sort"
	"strconv"
)

// Element 线上消息元素
// 由标签、扁平的字符串属性表和有序的子元素列表构成。
// 属性的写入顺序无意义，子元素的顺序必须端到端保持。
type Element struct {
	Tag      string
	attrs    map[string]string
	Children []*Element
}

func NewElement(tag string) *Element {
	return &Element{
		Tag:   tag,
		attrs: map[string]string{},
	}
}

// SetAttr 设置属性
// 可选属性在缺省时不调用本方法即可，不会序列化空槽位。
func (e *Element) SetAttr(key, value string) {
	e.attrs[key] = value
}

func (e *Element) SetIntAttr(key string, value int) {
	e.SetAttr(key, strconv.Itoa(value))
}

func (e *Element) SetBoolAttr(key string, value bool) {
	e.SetAttr(key, strconv.FormatBool(value))
}

// SetListAttr 以带下标的属性组（key0, key1, ...）写入字符串列表
func (e *Element) SetListAttr(key string, values []string) {
	for i, v := range values {
		e.SetAttr(key+strconv.Itoa(i), v)
	}
}

// LookupAttr 查询属性，返回属性值及其是否存在
func (e *Element) LookupAttr(key string) (string, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

// HasAttr 属性是否存在
func (e *Element) HasAttr(key string) bool {
	_, ok := e.attrs[key]
	return ok
}

// Attr 读取字符串属性，缺失时返回def
func (e *Element) Attr(key, def string) string {
	v, ok := e.attrs[key]
	if !ok {
		return def
	}
	return v
}

// IntAttr 读取整型属性
// 属性缺失或无法解析时返回def，解码不会因为属性内容失败。
func (e *Element) IntAttr(key string, def int) int {
	v, ok := e.attrs[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// BoolAttr 读取布尔属性，缺失或无法解析时返回def
func (e *Element) BoolAttr(key string, def bool) bool {
	v, ok := e.attrs[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// ListAttr 读取带下标的属性组，直到遇到第一个缺失的下标
func (e *Element) ListAttr(key string) []string {
	var values []string
	for i := 0; ; i++ {
		v, ok := e.attrs[key+strconv.Itoa(i)]
		if !ok {
			break
		}
		values = append(values, v)
	}
	return values
}

// EnumAttr 依据values表读取枚举属性，缺失或取值未知时返回def
func EnumAttr[E any](e *Element, key string, values map[string]E, def E) E {
	v, ok := e.attrs[key]
	if !ok {
		return def
	}
	ev, ok := values[v]
	if !ok {
		return def
	}
	return ev
}

func (e *Element) AttrCount() int {
	return len(e.attrs)
}

// AttrKeys 全部属性键，升序
func (e *Element) AttrKeys() []string {
	keys := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddChild 追加子元素，nil会被静默过滤
func (e *Element) AddChild(c *Element) {
	if c == nil {
		return
	}
	e.Children = append(e.Children, c)
}

func (e *Element) AddChildren(cs []*Element) {
	for _, c := range cs {
		e.AddChild(c)
	}
}

// OptionalChild 读取可选的单个子元素
// 没有子元素不算错误；存在子元素时必须恰好一个且标签匹配，
// 否则视为数据损坏。
func (e *Element) OptionalChild(tag string) (*Element, error) {
	if len(e.Children) == 0 {
		return nil, nil
	}
	if len(e.Children) > 1 {
		return nil, corruptf(nil, "element %q: expected at most one %q child, got %d children", e.Tag, tag, len(e.Children))
	}
	c := e.Children[0]
	if c.Tag != tag {
		return nil, corruptf(nil, "element %q: unexpected child tag %q, want %q", e.Tag, c.Tag, tag)
	}
	return c, nil
}

// SizeHint 估算编码后的字节数，用于预分配缓冲
func (e *Element) SizeHint() int {
	n := 2 + len(e.Tag) + 10
	for k, v := range e.attrs {
		n += 2 + len(k) + 2 + len(v)
	}
	for _, c := range e.Children {
		n += c.SizeHint()
	}
	return n
}
