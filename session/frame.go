package session

import (
	"encoding/binary"
	"io"
	"net"
	"time"

	"github.com/godyy/gnet"
	"github.com/pkg/errors"
)

var errMessageLenOverLimited = errors.New("message length over limited")

// maxMessageLen 握手消息的长度上限，读取包体前校验，
// 防止凭空撑大的长度前缀触发超大分配。
const maxMessageLen = 64 * 1024

// ReadMessage 在裸连接上读取一条带长度前缀的消息
// 只用于登录握手，握手完成后消息经由gnet会话传输。
func ReadMessage(conn net.Conn, timeout ...time.Duration) (Msg, error) {
	if len(timeout) > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout[0]))
	} else {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	}

	var buf [4]byte
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		return nil, errors.WithMessage(err, "read length")
	}

	n := int(binary.BigEndian.Uint32(buf[:]))
	if n <= 0 || n > maxMessageLen {
		return nil, errMessageLenOverLimited
	}

	p := gnet.GetPacket(n)
	defer gnet.PutPacket(p)

	if _, err := p.ReadFromN(conn, n); err != nil {
		return nil, errors.WithMessage(err, "read message")
	}

	m, err := DecodeMsg(p)
	if err != nil {
		return nil, errors.WithMessage(err, "decode message")
	}

	return m, nil
}

// WriteMessage 在裸连接上发送一条带长度前缀的消息
func WriteMessage(conn net.Conn, m Msg, timeout ...time.Duration) error {
	if len(timeout) > 0 {
		conn.SetWriteDeadline(time.Now().Add(timeout[0]))
	} else {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	}

	p, err := EncodeMsg(m)
	if err != nil {
		return errors.WithMessage(err, "encode message")
	}

	defer gnet.PutPacket(p)

	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(p.Readable()))
	if _, err := conn.Write(buf[:]); err != nil {
		return errors.WithMessage(err, "write length")
	}

	if _, err := p.WriteTo(conn); err != nil {
		return errors.WithMessage(err, "write message")
	}

	return nil
}
