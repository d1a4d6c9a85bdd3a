package server

import (
	"net"
	"sync"
	"time"

	"github.com/godyy/gcolony/ai"
	"github.com/godyy/gcolony/change"
	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/msg"
	"github.com/godyy/gcolony/session"
	"github.com/godyy/gnet"
	"github.com/godyy/gutils/log"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrServerStarted = errors.New("server started")
var ErrServerClose = errors.New("server close")
var ErrServerFull = errors.New("server full")
var ErrVersionMismatch = errors.New("version mismatch")

const (
	serverStarted = 1
	serverClosed  = 2
)

// Params 服务端的外部依赖
type Params struct {
	Game     *game.Game        // 对局数据
	PreGame  PreGameController // 局外规则回调
	InGame   InGameController  // 局内规则回调
	Registry *msg.Registry     // 消息目录
	Logger   log.Logger        // 日志工具
}

func (p *Params) check() error {
	if p.Game == nil {
		return errors.New("params: Game not specified")
	}

	if p.PreGame == nil {
		return errors.New("params: PreGame not specified")
	}

	if p.InGame == nil {
		return errors.New("params: InGame not specified")
	}

	if p.Registry == nil {
		p.Registry = msg.Default()
	}

	if p.Logger == nil {
		return errors.New("params: Logger not specified")
	}

	return nil
}

// Server 面向客户端的对局服务
// 监听客户端连接，完成登录握手，之后解码线上元素并按消息目录
// 分发。对局数据的读写统一在gameMtx下串行。
type Server struct {
	mtx           sync.Mutex
	id            string                 // 服务器ID
	config        *Config                // 配置
	logger        log.Logger             // 日志
	registry      *msg.Registry          // 消息目录
	handlers      *serverHandlerTable    // 分发表
	preGame       PreGameController      // 局外规则回调
	inGame        InGameController       // 局内规则回调
	sessionOption *gnet.TCPSessionOption // 网络会话选项
	state         int32                  // 状态
	listener      *gnet.TCPListener      // 网络监听器
	conns         map[string]*Conn       // 已登录的连接，按玩家ID索引
	aiPlayers     map[string]*ai.Player  // 挂载的AI玩家，按玩家ID索引
	meta          MetaDriver             // 公示信息驱动

	gameMtx sync.Mutex // 对局数据锁
	g       *game.Game // 对局数据
}

func NewServer(config *Config, params Params) (*Server, error) {
	if err := params.check(); err != nil {
		return nil, err
	}

	config.Session.Check()

	s := &Server{
		id:            uuid.NewString(),
		config:        config,
		registry:      params.Registry,
		handlers:      defaultServerHandlerTable,
		preGame:       params.PreGame,
		inGame:        params.InGame,
		sessionOption: config.Session.CreateOption(),
		conns:         map[string]*Conn{},
		aiPlayers:     map[string]*ai.Player{},
		g:             params.Game,
	}

	s.logger = params.Logger.
		Named("server").
		WithFields(zap.Dict(
			"server",
			zap.String("Id", s.id),
			zap.String("Name", config.Name),
			zap.String("Addr", config.Addr),
		))

	if config.Meta != nil {
		meta, err := CreateMetaDriver(config.Meta)
		if err != nil {
			return nil, err
		}
		s.meta = meta
	}

	return s, nil
}

// Game 对局数据
// 调用方需要自行保证与分发流程的互斥。
func (s *Server) Game() *game.Game {
	return s.g
}

func (s *Server) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.state >= serverStarted {
		return ErrServerStarted
	}

	s.state = serverStarted
	s.logger.Info("server started")
	go s.listen()

	s.saveServerInfo(0)
	return nil
}

func (s *Server) isClosed() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.state == serverClosed
}

// Close 关闭服务
func (s *Server) Close() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.state == serverClosed {
		return
	}

	if s.listener != nil {
		s.listener.Close()
	}

	for _, c := range s.conns {
		c.close(ErrServerClose)
	}

	s.state = serverClosed
	s.removeServerInfo()
	s.logger.Info("server closed")
}

// GetConn 获取指定玩家的连接
func (s *Server) GetConn(playerId string) *Conn {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.conns[playerId]
}

// AttachAI 挂载AI玩家
// 广播变更时，AI玩家以自身视角收到与真人客户端相同的消息流。
func (s *Server) AttachAI(p *ai.Player) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.aiPlayers[p.PlayerId()] = p
}

// DetachAI 卸下AI玩家
func (s *Server) DetachAI(playerId string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.aiPlayers, playerId)
}

func (s *Server) createListener() {
	retryDelay := s.config.GetRetryDelayOfListening()

	for {
		listener, err := gnet.ListenTCP("tcp", s.config.Addr)
		if err == nil {
			s.logger.Info("server listening...")
			s.listener = listener
			break
		}

		if s.isClosed() {
			break
		}

		// 监听失败, 稍后重试
		s.logger.Errorf("server listening failed -> %v, retry %.2f secs later", err, retryDelay.Seconds())
		time.Sleep(retryDelay)
	}
}

// 监听过程
func (s *Server) listen() {
	for !s.isClosed() {
		s.createListener()

		err := s.listener.Start(func(conn net.Conn) {
			go s.handleLogin(conn)
		})
		if err != nil {
			s.logger.ErrorFields("server listening stop", zap.Error(err))
		}
	}
}

// handleLogin 登录握手
// 登录三件套在裸连接上走带长度前缀的帧，成功后才把连接升级为
// gnet会话。
func (s *Server) handleLogin(conn net.Conn) {
	m, err := session.ReadMessage(conn, s.config.GetLoginTimeout())
	if err != nil {
		s.logger.ErrorFields("read login", zap.Any("Remote", conn.RemoteAddr()), zap.Error(err))
		conn.Close()
		return
	}

	login, ok := m.(*session.MsgLogin)
	if !ok {
		s.logger.ErrorFields("read login, invalid msg type", zap.Any("Remote", conn.RemoteAddr()), zap.Int8("MsgType", m.MsgType()))
		conn.Close()
		return
	}

	if err := s.checkLogin(login); err != nil {
		s.rejectLogin(conn, err.Error())
		return
	}

	s.gameMtx.Lock()
	player, cs, err := s.preGame.Login(login.UserName, login.Version)
	s.gameMtx.Unlock()
	if err != nil {
		s.rejectLogin(conn, err.Error())
		return
	}

	token := uuid.NewString()
	c := newConn(token, s, player, gnet.NewTCPSession(conn.(*net.TCPConn)), s.logger)

	s.mtx.Lock()
	if s.state != serverStarted {
		s.mtx.Unlock()
		s.rejectLogin(conn, ErrServerClose.Error())
		return
	}
	if old := s.conns[player.Id]; old != nil {
		// 顶替旧连接
		old.close(errors.New("replaced by new login"))
		s.onConnClosedLocked(old)
	}
	s.conns[player.Id] = c
	players := len(s.conns)
	s.mtx.Unlock()

	if err := session.WriteMessage(conn, &session.MsgLoginAck{PlayerId: player.Id, Token: token}, s.config.GetLoginTimeout()); err != nil {
		s.logger.ErrorFields("write login ack", zap.Any("Remote", conn.RemoteAddr()), zap.Error(err))
		s.onConnClosed(c)
		conn.Close()
		return
	}

	if err := c.start(s.sessionOption); err != nil {
		s.logger.ErrorFields("start conn", zap.Any("Remote", conn.RemoteAddr()), zap.Error(err))
		s.onConnClosed(c)
		conn.Close()
		return
	}

	s.logger.InfoFields(
		"player login",
		zap.Dict(
			"login",
			zap.String("PlayerId", player.Id),
			zap.String("UserName", login.UserName),
			zap.Any("Remote", conn.RemoteAddr()),
		),
	)

	s.saveServerInfo(players)

	if err := s.BroadcastChangeSet(cs); err != nil {
		s.logger.ErrorFields("broadcast login changes", zap.Error(err))
	}
}

func (s *Server) checkLogin(login *session.MsgLogin) error {
	if login.UserName == "" {
		return errors.New("empty user name")
	}

	if s.config.Version != "" && s.config.Version != login.Version {
		return ErrVersionMismatch
	}

	if s.config.MaxPlayers > 0 {
		s.mtx.Lock()
		full := len(s.conns) >= s.config.MaxPlayers
		s.mtx.Unlock()
		if full {
			return ErrServerFull
		}
	}

	return nil
}

func (s *Server) rejectLogin(conn net.Conn, reason string) {
	if err := session.WriteMessage(conn, &session.MsgLoginReject{Reason: reason}, s.config.GetLoginTimeout()); err != nil {
		s.logger.ErrorFields("write login reject", zap.Any("Remote", conn.RemoteAddr()), zap.Error(err))
	}
	conn.Close()
}

func (s *Server) delConn(c *Conn) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.onConnClosedLocked(c)
}

func (s *Server) onConnClosedLocked(c *Conn) bool {
	if cc := s.conns[c.player.Id]; cc == c {
		delete(s.conns, c.player.Id)
		return true
	}
	return false
}

// onConnClosed 接收连接关闭事件
// 连接断开视作登出，产生的变更继续广播给在线玩家。连接已被
// 摘除（主动登出、被新登录顶替）时不重复登出，因此可以从多条
// 关闭路径安全地重复通知。
func (s *Server) onConnClosed(c *Conn) {
	s.mtx.Lock()
	if s.state == serverClosed {
		s.mtx.Unlock()
		return
	}
	if !s.onConnClosedLocked(c) {
		s.mtx.Unlock()
		return
	}
	players := len(s.conns)
	s.mtx.Unlock()

	s.saveServerInfo(players)

	s.gameMtx.Lock()
	cs, err := s.preGame.Logout(c.player, "connection closed")
	s.gameMtx.Unlock()
	if err != nil {
		s.logger.ErrorFields("logout on conn closed", zap.String("PlayerId", c.player.Id), zap.Error(err))
		return
	}

	if err := s.BroadcastChangeSet(cs); err != nil {
		s.logger.ErrorFields("broadcast logout changes", zap.Error(err))
	}
}

// BroadcastChangeSet 将变更集按每个接收方的视角扇出
// 单个连接的发送失败不影响其他接收方，错误聚合后返回。
func (s *Server) BroadcastChangeSet(cs *change.Set) error {
	if cs == nil || cs.Empty() {
		return nil
	}

	s.mtx.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	ais := make([]*ai.Player, 0, len(s.aiPlayers))
	for _, a := range s.aiPlayers {
		ais = append(ais, a)
	}
	s.mtx.Unlock()

	var errs error
	for _, c := range conns {
		for _, m := range cs.Flatten(c.Player()) {
			if err := c.SendMsg(m); err != nil {
				errs = multierror.Append(errs, errors.WithMessagef(err, "send %q to player %s", m.Tag(), c.Player().Id))
				break
			}
		}
	}

	for _, a := range ais {
		dst := s.g.FindPlayer(a.PlayerId())
		if dst == nil {
			continue
		}
		for _, m := range cs.Flatten(dst) {
			a.HandleMsg(m)
		}
	}

	return errs
}

// saveServerInfo 公示/刷新服务器信息
func (s *Server) saveServerInfo(players int) {
	if s.meta == nil {
		return
	}

	err := s.meta.SaveServer(&ServerInfo{
		Id:        s.id,
		Name:      s.config.Name,
		Addr:      s.config.Addr,
		Version:   s.config.Version,
		Slots:     s.config.MaxPlayers,
		Players:   players,
		UpdatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		s.logger.ErrorFields("save server info", zap.Error(err))
	}
}

func (s *Server) removeServerInfo() {
	if s.meta == nil {
		return
	}

	if err := s.meta.RemoveServer(s.id); err != nil {
		s.logger.ErrorFields("remove server info", zap.Error(err))
	}
}
