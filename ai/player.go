package ai

import (
	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/msg"
	"github.com/godyy/gutils/log"
	"go.uber.org/zap"
)

// Player AI玩家
// 不走网络，由服务端在广播变更时以AI玩家的视角直接投递消息。
// 自身维护一份对局数据镜像，与真人客户端的落地逻辑一致。
type Player struct {
	playerId string     // 绑定的玩家ID
	g        *game.Game // 对局数据镜像
	logger   log.Logger // 日志

	// onTurn 轮到自己时的决策回调
	onTurn func(*Player)

	gameEnded bool   // 对局是否已结束
	winnerId  string // 胜者玩家ID
}

func NewPlayer(playerId string, logger log.Logger) *Player {
	return &Player{
		playerId: playerId,
		g:        game.NewGame(0, 0),
		logger: logger.Named("ai").WithFields(zap.Dict(
			"ai",
			zap.String("PlayerId", playerId),
		)),
	}
}

// PlayerId 绑定的玩家ID
func (p *Player) PlayerId() string {
	return p.playerId
}

// Game 对局数据镜像
func (p *Player) Game() *game.Game {
	return p.g
}

// SetOnTurn 设置轮到自己时的决策回调
func (p *Player) SetOnTurn(callback func(*Player)) {
	p.onTurn = callback
}

// GameEnded 对局是否已结束，以及胜者玩家ID
func (p *Player) GameEnded() (bool, string) {
	return p.gameEnded, p.winnerId
}

// MyTurn 当前是否轮到自己
func (p *Player) MyTurn() bool {
	cp := p.g.CurrentPlayer()
	return cp != nil && cp.Id == p.playerId
}

// HandleMsg 处理服务端投递的消息
// 对端数据异常只记录日志，不中断消息流。
func (p *Player) HandleMsg(m msg.Msg) {
	aiMsgHandlerSingleton.handleMsg(p, m)
}
