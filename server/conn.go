package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/msg"
	"github.com/godyy/gcolony/session"
	"github.com/godyy/gnet"
	"github.com/godyy/gutils/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	connStarted = 1
	connClosed  = 2
)

var errConnStarted = errors.New("conn started")
var errConnNotStarted = errors.New("conn not started")
var errConnClosed = errors.New("conn closed")
var errConnInactive = errors.New("conn inactive")
var errLowerLevelSessionNotMatch = errors.New("lower level session not match")
var errUpperLevelConnClosed = errors.New("upper level conn closed")
var errClientDisconnect = errors.New("client disconnect")

var msgPong = &session.MsgHeartbeat{Ping: false}

// Conn 一条已登录的客户端连接
// 连接在登录握手成功后创建，自创建起就绑定玩家。服务端不
// 主动发送心跳，只依靠失效定时器剔除静默连接。
type Conn struct {
	mtx           sync.Mutex
	token         string           // 会话令牌
	state         int32            // 状态
	srv           *Server          // 所属服务
	gSession      *gnet.TCPSession // gnet网络会话
	player        *game.Player     // 绑定的玩家
	activeAt      atomic.Int64     // 最近一次激活的时间（发送/接收消息）
	inactiveTimer *time.Timer      // 失效定时器
	logger        log.Logger       // 日志
}

func newConn(token string, srv *Server, player *game.Player, gSession *gnet.TCPSession, logger log.Logger) *Conn {
	c := &Conn{
		token:    token,
		srv:      srv,
		gSession: gSession,
		player:   player,
		logger: logger.WithFields(zap.Dict(
			"conn",
			zap.String("Token", token),
			zap.String("PlayerId", player.Id),
			zap.String("PlayerName", player.Name),
		)),
	}
	return c
}

// start 启动连接
func (c *Conn) start(option *gnet.TCPSessionOption) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state != 0 {
		return errConnStarted
	}

	if err := c.gSession.Start(option, c); err != nil {
		return err
	}

	c.active()
	c.state = connStarted
	c.logger.Info("conn started")
	return nil
}

// close 关闭连接
func (c *Conn) close(reason error) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state == connClosed {
		return errConnClosed
	}

	c.doClose(reason)
	c.logger.InfoFields("conn closed", zap.Error(reason))
	return nil
}

func (c *Conn) doClose(reason error) {
	c.stopInactiveTimer()
	if c.gSession != nil {
		c.gSession.Close(reason)
	}
	c.state = connClosed
}

// Player 连接绑定的玩家
func (c *Conn) Player() *game.Player {
	return c.player
}

// Token 连接的会话令牌
func (c *Conn) Token() string {
	return c.token
}

func (c *Conn) LocalAddr() net.Addr {
	return c.gSession.LocalAddr()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.gSession.RemoteAddr()
}

// active 连接激活
func (c *Conn) active() {
	c.activeAt.Store(time.Now().UnixNano())
	c.startInactiveTimer()
}

func (c *Conn) startInactiveTimer() {
	inactiveTimeout := c.srv.config.Session.GetInactiveTimeout()

	if c.inactiveTimer == nil {
		c.inactiveTimer = time.AfterFunc(inactiveTimeout, c.onInactiveTimer)
	} else {
		c.inactiveTimer.Stop()
		c.inactiveTimer.Reset(inactiveTimeout)
	}
}

func (c *Conn) stopInactiveTimer() {
	if c.inactiveTimer != nil {
		c.inactiveTimer.Stop()
		c.inactiveTimer = nil
	}
}

func (c *Conn) onInactiveTimer() {
	c.mtx.Lock()

	if c.state == connClosed {
		c.mtx.Unlock()
		return
	}

	inactiveTimeout := c.srv.config.Session.GetInactiveTimeout()
	if time.Now().UnixNano()-c.activeAt.Load() < int64(inactiveTimeout) {
		c.startInactiveTimer()
		c.mtx.Unlock()
		return
	}
	c.doClose(errConnInactive)
	c.logger.InfoFields("conn closed", zap.Error(errConnInactive))
	c.mtx.Unlock()

	// 服务端主动剔除也要走登出流程
	c.srv.onConnClosed(c)
}

// SendMsg 向客户端发送协议消息
// 编码时以连接绑定的玩家作为可见性视角。
func (c *Conn) SendMsg(m msg.Msg, timeout ...time.Duration) error {
	if m == nil {
		return nil
	}

	c.mtx.Lock()
	if c.state != connStarted {
		c.mtx.Unlock()
		return errConnNotStarted
	}
	c.active()
	c.mtx.Unlock()

	el, err := m.ToElement(c.player)
	if err != nil {
		return errors.WithMessagef(err, "encode msg %q", m.Tag())
	}

	return c.sendMessage(&session.MsgPayload{Element: el}, timeout...)
}

func (c *Conn) sendMessage(m session.Msg, timeout ...time.Duration) error {
	p, err := session.EncodeMsg(m)
	if err != nil {
		return err
	}

	return c.gSession.SendPacket(p, timeout...)
}

// OnSessionPacket 接收底层数据包事件
func (c *Conn) OnSessionPacket(gSession gnet.Session, p *gnet.Packet) error {
	if c.gSession != gSession {
		return errLowerLevelSessionNotMatch
	}

	defer gnet.PutPacket(p)

	m, err := session.DecodeMsg(p)
	if err != nil {
		return errors.WithMessage(err, "decode msg")
	}

	c.mtx.Lock()
	if c.state == connClosed {
		c.mtx.Unlock()
		return errUpperLevelConnClosed
	}

	switch m.MsgType() {
	case session.MsgTypeHeartbeat:
		c.active()
		c.mtx.Unlock()
		heartbeat := m.(*session.MsgHeartbeat)
		if heartbeat.Ping {
			if err := c.sendMessage(msgPong); err != nil {
				return errors.WithMessage(err, "reply heartbeat")
			}
		}
	case session.MsgTypePayload:
		c.active()
		c.mtx.Unlock()
		payload := m.(*session.MsgPayload)
		return c.srv.onConnElement(c, payload.Element)
	default:
		c.mtx.Unlock()
		return fmt.Errorf("receive invalid message type %d", m.MsgType())
	}

	return nil
}

// OnSessionClosed 接收底层关闭事件
func (c *Conn) OnSessionClosed(gSession gnet.Session, err error) {
	if c.gSession != gSession {
		c.logger.ErrorFields("on lower-level session closed", zap.Error(errLowerLevelSessionNotMatch))
		return
	}

	c.close(err)

	// 不论关闭由哪一侧发起都要通知服务，onConnClosed自身保证
	// 登出只发生一次。
	c.srv.onConnClosed(c)
}
