package client

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/msg"
	"github.com/godyy/gcolony/session"
	"github.com/godyy/gcolony/wire"
	"github.com/godyy/gnet"
	"github.com/godyy/gutils/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	clientConnected = 1
	clientClosed    = 2
)

var ErrClientConnected = errors.New("client connected")
var ErrClientNotConnected = errors.New("client not connected")
var ErrClientClosed = errors.New("client closed")
var errClientInactive = errors.New("client inactive")
var errLowerLevelSessionNotMatch = errors.New("lower level session not match")

var msgPing = &session.MsgHeartbeat{Ping: true}
var msgPong = &session.MsgHeartbeat{Ping: false}

// Config 客户端配置
type Config struct {
	// 登录握手超时 ms
	LoginTimeout int32 `yaml:"LoginTimeout" toml:"LoginTimeout"`

	// 会话相关配置
	Session session.Config `yaml:"Session" toml:"Session"`
}

func (c *Config) GetLoginTimeout() time.Duration {
	return time.Duration(c.LoginTimeout) * time.Millisecond
}

// Params 客户端的外部依赖
type Params struct {
	Registry *msg.Registry // 消息目录
	Logger   log.Logger    // 日志工具
}

func (p *Params) check() error {
	if p.Registry == nil {
		p.Registry = msg.Default()
	}

	if p.Logger == nil {
		return errors.New("params: Logger not specified")
	}

	return nil
}

// Client 对局客户端
// 连接服务端并登录，之后把服务端事件落地到本地的对局数据
// 镜像。对端数据异常只记录日志，不影响已落地的状态。
type Client struct {
	mtx           sync.Mutex
	config        *Config                // 配置
	logger        log.Logger             // 日志
	registry      *msg.Registry          // 消息目录
	sessionOption *gnet.TCPSessionOption // 网络会话选项
	state         int32                  // 状态
	gSession      *gnet.TCPSession       // gnet网络会话

	playerId string // 登录后分配的玩家ID
	token    string // 会话令牌

	activeAt       atomic.Int64 // 最近一次激活的时间（发送/接收消息）
	heartbeatTimer *time.Timer  // 心跳定时器
	inactiveTimer  *time.Timer  // 失效定时器

	gameMtx sync.Mutex // 对局数据锁
	g       *game.Game // 对局数据镜像

	gameEnded bool   // 对局是否已结束
	winnerId  string // 胜者玩家ID

	// onChat 收到聊天时的回调，可选
	onChat func(sender, message string, private bool)

	// onError 收到服务端错误时的回调，可选
	onError func(templateId, message string)
}

func NewClient(config *Config, params Params) (*Client, error) {
	if err := params.check(); err != nil {
		return nil, err
	}

	config.Session.Check()

	c := &Client{
		config:        config,
		logger:        params.Logger.Named("client"),
		registry:      params.Registry,
		sessionOption: config.Session.CreateOption(),
		g:             game.NewGame(0, 0),
	}
	return c, nil
}

// SetOnChat 设置聊天回调
func (c *Client) SetOnChat(callback func(sender, message string, private bool)) {
	c.onChat = callback
}

// SetOnError 设置服务端错误回调
func (c *Client) SetOnError(callback func(templateId, message string)) {
	c.onError = callback
}

// PlayerId 登录后分配的玩家ID
func (c *Client) PlayerId() string {
	return c.playerId
}

// Game 本地的对局数据镜像
// 调用方需要自行保证与接收流程的互斥。
func (c *Client) Game() *game.Game {
	return c.g
}

// Me 自己的玩家对象，登录完成且服务端下发快照前可能为nil
func (c *Client) Me() *game.Player {
	return c.g.FindPlayer(c.playerId)
}

// GameEnded 对局是否已结束，以及胜者玩家ID
func (c *Client) GameEnded() (bool, string) {
	c.gameMtx.Lock()
	defer c.gameMtx.Unlock()
	return c.gameEnded, c.winnerId
}

// Connect 连接服务端并登录
// 登录三件套在裸连接上走带长度前缀的帧，成功后才把连接升级为
// gnet会话。
func (c *Client) Connect(addr, userName, version string) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state != 0 {
		return ErrClientConnected
	}

	conn, err := net.DialTimeout("tcp", addr, c.config.GetLoginTimeout())
	if err != nil {
		return errors.WithMessage(err, "dial server")
	}

	if err := session.WriteMessage(conn, &session.MsgLogin{UserName: userName, Version: version}, c.config.GetLoginTimeout()); err != nil {
		conn.Close()
		return errors.WithMessage(err, "write login")
	}

	m, err := session.ReadMessage(conn, c.config.GetLoginTimeout())
	if err != nil {
		conn.Close()
		return errors.WithMessage(err, "read login ack")
	}

	switch ack := m.(type) {
	case *session.MsgLoginAck:
		c.playerId = ack.PlayerId
		c.token = ack.Token
	case *session.MsgLoginReject:
		conn.Close()
		return fmt.Errorf("login rejected: %s", ack.Reason)
	default:
		conn.Close()
		return fmt.Errorf("login ack with invalid msg type %d", m.MsgType())
	}

	c.gSession = gnet.NewTCPSession(conn.(*net.TCPConn))
	if err := c.gSession.Start(c.sessionOption, c); err != nil {
		conn.Close()
		return errors.WithMessage(err, "start session")
	}

	c.state = clientConnected
	c.active()
	c.logger = c.logger.WithFields(zap.Dict(
		"client",
		zap.String("PlayerId", c.playerId),
		zap.String("UserName", userName),
	))
	c.logger.Info("client connected")
	return nil
}

// Close 关闭客户端
func (c *Client) Close(reason error) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state == clientClosed {
		return ErrClientClosed
	}

	c.doClose(reason)
	c.logger.InfoFields("client closed", zap.Error(reason))
	return nil
}

func (c *Client) doClose(reason error) {
	c.stopHeartbeat()
	c.stopInactiveTimer()
	if c.gSession != nil {
		c.gSession.Close(reason)
	}
	c.state = clientClosed
}

// active 会话激活
func (c *Client) active() {
	c.activeAt.Store(time.Now().UnixNano())
	c.startHeartbeat()
	c.startInactiveTimer()
}

func (c *Client) startHeartbeat() {
	heartbeatTimeout := c.config.Session.GetHeartbeatTimeout()

	if c.heartbeatTimer == nil {
		c.heartbeatTimer = time.AfterFunc(heartbeatTimeout, c.onHeartbeatTimer)
	} else {
		c.heartbeatTimer.Stop()
		c.heartbeatTimer.Reset(heartbeatTimeout)
	}
}

func (c *Client) stopHeartbeat() {
	if c.heartbeatTimer != nil {
		c.heartbeatTimer.Stop()
		c.heartbeatTimer = nil
	}
}

func (c *Client) onHeartbeatTimer() {
	c.mtx.Lock()
	if c.state == clientClosed {
		c.mtx.Unlock()
		return
	}
	c.mtx.Unlock()

	if time.Now().UnixNano()-c.activeAt.Load() >= int64(c.config.Session.GetHeartbeatTimeout()) {
		if err := c.sendMessage(msgPing); err != nil {
			// 发送心跳消息失败
			c.logger.ErrorFields("client send heartbeat", zap.Error(err))
		}
	}

	c.mtx.Lock()
	c.startHeartbeat()
	c.mtx.Unlock()
}

func (c *Client) startInactiveTimer() {
	inactiveTimeout := c.config.Session.GetInactiveTimeout()

	if c.inactiveTimer == nil {
		c.inactiveTimer = time.AfterFunc(inactiveTimeout, c.onInactiveTimer)
	} else {
		c.inactiveTimer.Stop()
		c.inactiveTimer.Reset(inactiveTimeout)
	}
}

func (c *Client) stopInactiveTimer() {
	if c.inactiveTimer != nil {
		c.inactiveTimer.Stop()
		c.inactiveTimer = nil
	}
}

func (c *Client) onInactiveTimer() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state == clientClosed {
		return
	}

	inactiveTimeout := c.config.Session.GetInactiveTimeout()
	if time.Now().UnixNano()-c.activeAt.Load() < int64(inactiveTimeout) {
		c.startInactiveTimer()
		return
	}
	c.doClose(errClientInactive)
}

// SendMsg 向服务端发送协议消息
func (c *Client) SendMsg(m msg.Msg, timeout ...time.Duration) error {
	if m == nil {
		return nil
	}

	c.mtx.Lock()
	if c.state != clientConnected {
		c.mtx.Unlock()
		return ErrClientNotConnected
	}
	c.active()
	c.mtx.Unlock()

	el, err := m.ToElement(nil)
	if err != nil {
		return errors.WithMessagef(err, "encode msg %q", m.Tag())
	}

	return c.sendMessage(&session.MsgPayload{Element: el}, timeout...)
}

func (c *Client) sendMessage(m session.Msg, timeout ...time.Duration) error {
	p, err := session.EncodeMsg(m)
	if err != nil {
		return err
	}

	return c.gSession.SendPacket(p, timeout...)
}

// OnSessionPacket 接收底层数据包事件
func (c *Client) OnSessionPacket(gSession gnet.Session, p *gnet.Packet) error {
	if c.gSession != gSession {
		return errLowerLevelSessionNotMatch
	}

	defer gnet.PutPacket(p)

	m, err := session.DecodeMsg(p)
	if err != nil {
		return errors.WithMessage(err, "decode msg")
	}

	c.mtx.Lock()
	if c.state == clientClosed {
		c.mtx.Unlock()
		return ErrClientClosed
	}

	switch sm := m.(type) {
	case *session.MsgHeartbeat:
		c.active()
		c.mtx.Unlock()
		if sm.Ping {
			if err := c.sendMessage(msgPong); err != nil {
				return errors.WithMessage(err, "reply heartbeat")
			}
		}
	case *session.MsgPayload:
		c.active()
		c.mtx.Unlock()
		return c.onElement(sm.Element)
	default:
		c.mtx.Unlock()
		return fmt.Errorf("receive invalid message type %d", m.MsgType())
	}

	return nil
}

// OnSessionClosed 接收底层关闭事件
func (c *Client) OnSessionClosed(gSession gnet.Session, err error) {
	if c.gSession != gSession {
		c.logger.ErrorFields("on lower-level session closed", zap.Error(errLowerLevelSessionNotMatch))
		return
	}

	c.Close(err)
}

// onElement 落地服务端下发的线上元素
// 未注册的标签视为数据损坏，断开连接。
func (c *Client) onElement(el *wire.Element) error {
	m, _, err := c.registry.Decode(el)
	if err != nil {
		c.logger.ErrorFields("decode element", zap.String("Tag", el.Tag), zap.Error(err))
		c.Close(err)
		return err
	}

	c.gameMtx.Lock()
	defer c.gameMtx.Unlock()
	clientMsgHandlerSingleton.handleMsg(c, m)
	return nil
}
