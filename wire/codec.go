package wire

import (
	std_errors "errors"
	"fmt"
	"sort"

	"github.com/godyy/gnet"
	"github.com/pkg/errors"
)

// 结构防御上限，超出视为数据损坏
const (
	MaxAttrs    = 256
	MaxChildren = 1024
)

// CorruptError 线上数据结构损坏
// 区别于属性内容问题：标签不匹配、元素截断、数量越界等
// 均属结构损坏，对当前读取是致命的。
type CorruptError struct {
	reason string
	cause  error
}

func (e *CorruptError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("wire corrupt: %s: %v", e.reason, e.cause)
	}
	return "wire corrupt: " + e.reason
}

func (e *CorruptError) Unwrap() error { return e.cause }

// Corruptf 构造结构损坏错误
// 供上层在遇到非期望的子元素标签等结构问题时使用。
func Corruptf(cause error, format string, args ...interface{}) *CorruptError {
	return &CorruptError{
		reason: fmt.Sprintf(format, args...),
		cause:  cause,
	}
}

func corruptf(cause error, format string, args ...interface{}) *CorruptError {
	return Corruptf(cause, format, args...)
}

// IsCorrupt err是否为结构损坏错误
func IsCorrupt(err error) bool {
	var ce *CorruptError
	return std_errors.As(err, &ce)
}

// Encode 将元素编码进packet
// 先写属性部分（按键排序，保证编码确定性），再按列表顺序写子元素。
func (e *Element) Encode(p *gnet.Packet) error {
	if e.Tag == "" {
		return errors.New("encode element: empty tag")
	}

	if err := p.WriteString(e.Tag); err != nil {
		return errors.WithMessage(err, "encode tag")
	}

	if err := p.WriteVarint64(int64(len(e.attrs))); err != nil {
		return errors.WithMessage(err, "encode attr count")
	}

	keys := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := p.WriteString(k); err != nil {
			return errors.WithMessagef(err, "encode attr %q key", k)
		}
		if err := p.WriteString(e.attrs[k]); err != nil {
			return errors.WithMessagef(err, "encode attr %q value", k)
		}
	}

	if err := p.WriteVarint64(int64(len(e.Children))); err != nil {
		return errors.WithMessage(err, "encode child count")
	}
	for i, c := range e.Children {
		if err := c.Encode(p); err != nil {
			return errors.WithMessagef(err, "encode child %d", i)
		}
	}

	return nil
}

// Decode 从packet解码一个元素
func Decode(p *gnet.Packet) (*Element, error) {
	tag, err := p.ReadString()
	if err != nil {
		return nil, corruptf(err, "read tag")
	}
	if tag == "" {
		return nil, corruptf(nil, "empty tag")
	}

	e := NewElement(tag)

	attrCount, err := p.ReadVarint64()
	if err != nil {
		return nil, corruptf(err, "element %q: read attr count", tag)
	}
	if attrCount < 0 || attrCount > MaxAttrs {
		return nil, corruptf(nil, "element %q: attr count %d out of range", tag, attrCount)
	}
	for i := int64(0); i < attrCount; i++ {
		k, err := p.ReadString()
		if err != nil {
			return nil, corruptf(err, "element %q: read attr %d key", tag, i)
		}
		v, err := p.ReadString()
		if err != nil {
			return nil, corruptf(err, "element %q: read attr %q value", tag, k)
		}
		e.attrs[k] = v
	}

	childCount, err := p.ReadVarint64()
	if err != nil {
		return nil, corruptf(err, "element %q: read child count", tag)
	}
	if childCount < 0 || childCount > MaxChildren {
		return nil, corruptf(nil, "element %q: child count %d out of range", tag, childCount)
	}
	if childCount > 0 {
		e.Children = make([]*Element, 0, childCount)
		for i := int64(0); i < childCount; i++ {
			c, err := Decode(p)
			if err != nil {
				return nil, corruptf(err, "element %q: decode child %d", tag, i)
			}
			e.Children = append(e.Children, c)
		}
	}

	return e, nil
}

// DecodeExpect 解码元素并校验标签
// 标签与期望不符属结构损坏。
func DecodeExpect(p *gnet.Packet, tag string) (*Element, error) {
	e, err := Decode(p)
	if err != nil {
		return nil, err
	}
	if e.Tag != tag {
		return nil, corruptf(nil, "unexpected tag %q, want %q", e.Tag, tag)
	}
	return e, nil
}
