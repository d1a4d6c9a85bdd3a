package session

import (
	"fmt"

	"github.com/godyy/gcolony/wire"
	"github.com/godyy/gnet"
	"github.com/pkg/errors"
)

const (
	MsgTypeLogin       = 0 // 登录请求
	MsgTypeLoginAck    = 1 // 登录确认
	MsgTypeLoginReject = 2 // 登录拒绝
	MsgTypeHeartbeat   = 3 // 心跳
	MsgTypePayload     = 4 // 负载消息，承载协议层的线上元素
)

// Msg 会话层消息
// 登录三件套只在裸连接上走带长度前缀的帧；心跳与负载
// 经由gnet会话传输。
type Msg interface {
	MsgType() int8
	Size() int
	Encode(p *gnet.Packet) error
	Decode(p *gnet.Packet) error
}

var msgCreators = map[int8]func() Msg{
	MsgTypeLogin: func() Msg {
		return &MsgLogin{}
	},
	MsgTypeLoginAck: func() Msg {
		return &MsgLoginAck{}
	},
	MsgTypeLoginReject: func() Msg {
		return &MsgLoginReject{}
	},
	MsgTypeHeartbeat: func() Msg {
		return &MsgHeartbeat{}
	},
	MsgTypePayload: func() Msg {
		return &MsgPayload{}
	},
}

func createMsg(msgType int8) Msg {
	creator := msgCreators[msgType]
	if creator == nil {
		return nil
	}
	return creator()
}

// MsgLogin 登录请求
type MsgLogin struct {
	UserName string // 玩家名
	Version  string // 客户端版本
}

func (m *MsgLogin) MsgType() int8 {
	return MsgTypeLogin
}

func (m *MsgLogin) Size() int {
	return 1 + 2 + len(m.UserName) + 2 + len(m.Version)
}

func (m *MsgLogin) Encode(packet *gnet.Packet) error {
	if err := packet.WriteString(m.UserName); err != nil {
		return errors.WithMessage(err, "encode UserName")
	}

	if err := packet.WriteString(m.Version); err != nil {
		return errors.WithMessage(err, "encode Version")
	}

	return nil
}

func (m *MsgLogin) Decode(packet *gnet.Packet) error {
	var err error

	m.UserName, err = packet.ReadString()
	if err != nil {
		return errors.WithMessage(err, "decode UserName")
	}

	m.Version, err = packet.ReadString()
	if err != nil {
		return errors.WithMessage(err, "decode Version")
	}

	return nil
}

// MsgLoginAck 登录确认
type MsgLoginAck struct {
	PlayerId string // 分配的玩家ID
	Token    string // 会话令牌
}

func (m *MsgLoginAck) MsgType() int8 {
	return MsgTypeLoginAck
}

func (m *MsgLoginAck) Size() int {
	return 1 + 2 + len(m.PlayerId) + 2 + len(m.Token)
}

func (m *MsgLoginAck) Encode(packet *gnet.Packet) error {
	if err := packet.WriteString(m.PlayerId); err != nil {
		return errors.WithMessage(err, "encode PlayerId")
	}

	if err := packet.WriteString(m.Token); err != nil {
		return errors.WithMessage(err, "encode Token")
	}

	return nil
}

func (m *MsgLoginAck) Decode(packet *gnet.Packet) error {
	var err error

	m.PlayerId, err = packet.ReadString()
	if err != nil {
		return errors.WithMessage(err, "decode PlayerId")
	}

	m.Token, err = packet.ReadString()
	if err != nil {
		return errors.WithMessage(err, "decode Token")
	}

	return nil
}

// MsgLoginReject 登录拒绝
type MsgLoginReject struct {
	Reason string // 拒绝的原因
}

func (m *MsgLoginReject) MsgType() int8 {
	return MsgTypeLoginReject
}

func (m *MsgLoginReject) Size() int {
	return 1 + 2 + len(m.Reason)
}

func (m *MsgLoginReject) Encode(packet *gnet.Packet) error {
	if err := packet.WriteString(m.Reason); err != nil {
		return errors.WithMessage(err, "encode Reason")
	}
	return nil
}

func (m *MsgLoginReject) Decode(packet *gnet.Packet) error {
	var err error

	m.Reason, err = packet.ReadString()
	if err != nil {
		return errors.WithMessage(err, "decode Reason")
	}

	return nil
}

// MsgHeartbeat 心跳
type MsgHeartbeat struct {
	Ping bool
}

func (m *MsgHeartbeat) MsgType() int8 {
	return MsgTypeHeartbeat
}

func (m *MsgHeartbeat) Size() int {
	return 1 + 1
}

func (m *MsgHeartbeat) Encode(packet *gnet.Packet) error {
	if err := packet.WriteBool(m.Ping); err != nil {
		return errors.WithMessage(err, "encode PingPong")
	}

	return nil
}

func (m *MsgHeartbeat) Decode(packet *gnet.Packet) error {
	var err error

	m.Ping, err = packet.ReadBool()
	if err != nil {
		return errors.WithMessage(err, "decode PingPong")
	}

	return nil
}

// MsgPayload 负载数据，内容为一个协议层元素
type MsgPayload struct {
	Element *wire.Element
}

func (m *MsgPayload) MsgType() int8 {
	return MsgTypePayload
}

func (m *MsgPayload) Size() int {
	return 1 + m.Element.SizeHint()
}

func (m *MsgPayload) Encode(packet *gnet.Packet) error {
	if err := m.Element.Encode(packet); err != nil {
		return errors.WithMessage(err, "encode element")
	}
	return nil
}

func (m *MsgPayload) Decode(packet *gnet.Packet) error {
	el, err := wire.Decode(packet)
	if err != nil {
		return errors.WithMessage(err, "decode element")
	}

	m.Element = el
	return nil
}

// EncodeMsg 编码消息到新的packet
func EncodeMsg(msg Msg) (*gnet.Packet, error) {
	p := gnet.GetPacket(msg.Size())

	if err := p.WriteInt8(msg.MsgType()); err != nil {
		return nil, errors.WithMessage(err, "encode msg type")
	}

	if err := msg.Encode(p); err != nil {
		return nil, err
	}

	return p, nil
}

// DecodeMsg 从packet解码消息
func DecodeMsg(p *gnet.Packet) (Msg, error) {
	msgType, err := p.ReadInt8()
	if err != nil {
		return nil, errors.WithMessage(err, "decode msg type")
	}

	mo := createMsg(msgType)
	if mo == nil {
		return nil, fmt.Errorf("invalid session msg type %d", msgType)
	}

	if err = mo.Decode(p); err != nil {
		return nil, err
	}

	return mo, nil
}
