package ai

import (
	"fmt"

	"github.com/godyy/gcolony/msg"
	"go.uber.org/zap"
)

// AI消息处理器单例
var aiMsgHandlerSingleton = newAIMsgHandlers()

// aiMsgCallback AI消息处理回调
type aiMsgCallback interface {
	tag() string
	call(*Player, msg.Msg)
}

// aiMsgCallbackWrapper AI消息处理回调包装器
type aiMsgCallbackWrapper[M msg.Msg] struct {
	callback func(*Player, M)
}

func (w aiMsgCallbackWrapper[M]) tag() string {
	return (*new(M)).Tag()
}

func (w aiMsgCallbackWrapper[M]) call(p *Player, m msg.Msg) {
	w.callback(p, m.(M))
}

func wrapAIMsgCallback[M msg.Msg](callback func(*Player, M)) aiMsgCallback {
	return aiMsgCallbackWrapper[M]{callback: callback}
}

// aiMsgHandler AI消息处理器
type aiMsgHandler struct {
	callbacks map[string]aiMsgCallback
}

func newAIMsgHandlers() *aiMsgHandler {
	h := &aiMsgHandler{
		callbacks: map[string]aiMsgCallback{},
	}
	h.registerCallback(wrapAIMsgCallback(h.handleError))
	h.registerCallback(wrapAIMsgCallback(h.handleChat))
	h.registerCallback(wrapAIMsgCallback(h.handleAddPlayer))
	h.registerCallback(wrapAIMsgCallback(h.handleRemovePlayer))
	h.registerCallback(wrapAIMsgCallback(h.handleUpdate))
	h.registerCallback(wrapAIMsgCallback(h.handlePartial))
	h.registerCallback(wrapAIMsgCallback(h.handleRemove))
	h.registerCallback(wrapAIMsgCallback(h.handleSetCurrentPlayer))
	h.registerCallback(wrapAIMsgCallback(h.handleNewTurn))
	h.registerCallback(wrapAIMsgCallback(h.handleSetDead))
	h.registerCallback(wrapAIMsgCallback(h.handleStance))
	h.registerCallback(wrapAIMsgCallback(h.handleAnimateMove))
	h.registerCallback(wrapAIMsgCallback(h.handleAnimateAttack))
	h.registerCallback(wrapAIMsgCallback(h.handleGameEnded))
	h.registerCallback(wrapAIMsgCallback(h.handleCloseMenus))
	h.registerCallback(wrapAIMsgCallback(h.handleSetAI))
	return h
}

// registerCallback 注册消息处理回调
func (h *aiMsgHandler) registerCallback(callback aiMsgCallback) {
	tag := callback.tag()
	if _, ok := h.callbacks[tag]; ok {
		panic(fmt.Errorf("duplicate aiMsgCallback of tag %q", tag))
	}
	h.callbacks[tag] = callback
}

// handleMsg 处理消息
func (h *aiMsgHandler) handleMsg(p *Player, m msg.Msg) {
	callback := h.callbacks[m.Tag()]
	if callback == nil {
		p.logger.WithFields(zap.String("Tag", m.Tag())).Warnln("ai receive unhandled msg")
		return
	}

	callback.call(p, m)
}

// handleError error消息处理回调
func (h *aiMsgHandler) handleError(p *Player, m *msg.Error) {
	p.logger.ErrorFields("ai receive error", zap.String("TemplateId", m.TemplateId), zap.String("Message", m.Message))
}

// handleChat chat消息处理回调
func (h *aiMsgHandler) handleChat(p *Player, m *msg.Chat) {
	// AI不参与聊天
}

// handleAddPlayer addPlayer消息处理回调
func (h *aiMsgHandler) handleAddPlayer(p *Player, m *msg.AddPlayer) {
	for _, pl := range m.Players {
		p.g.AddPlayer(pl)
	}
}

// handleRemovePlayer removePlayer消息处理回调
func (h *aiMsgHandler) handleRemovePlayer(p *Player, m *msg.RemovePlayer) {
	if p.g.FindPlayer(m.PlayerId) == nil {
		p.logger.WithFields(zap.String("PlayerId", m.PlayerId)).Warnln("ai remove unknown player")
		return
	}
	p.g.RemovePlayer(m.PlayerId)
}

// handleUpdate update消息处理回调
func (h *aiMsgHandler) handleUpdate(p *Player, m *msg.Update) {
	for _, o := range m.Objects {
		if err := p.g.Apply(o); err != nil {
			p.logger.ErrorFields("ai apply update", zap.String("ObjectId", o.ObjectId()), zap.Error(err))
		}
	}
}

// handlePartial partial消息处理回调
func (h *aiMsgHandler) handlePartial(p *Player, m *msg.Partial) {
	if err := p.g.ApplyPartial(m.ObjectId, m.Attrs); err != nil {
		p.logger.ErrorFields("ai apply partial", zap.String("ObjectId", m.ObjectId), zap.Error(err))
	}
}

// handleRemove remove消息处理回调
func (h *aiMsgHandler) handleRemove(p *Player, m *msg.Remove) {
	for _, id := range m.ObjectIds {
		p.g.Remove(id)
	}
}

// handleSetCurrentPlayer setCurrentPlayer消息处理回调
// 轮到自己时触发决策回调。
func (h *aiMsgHandler) handleSetCurrentPlayer(p *Player, m *msg.SetCurrentPlayer) {
	if p.g.FindPlayer(m.PlayerId) == nil {
		p.logger.WithFields(zap.String("PlayerId", m.PlayerId)).Warnln("ai set unknown current player")
		return
	}

	p.g.SetCurrentPlayer(m.PlayerId)

	if m.PlayerId == p.playerId && p.onTurn != nil {
		p.onTurn(p)
	}
}

// handleNewTurn newTurn消息处理回调
func (h *aiMsgHandler) handleNewTurn(p *Player, m *msg.NewTurn) {
	p.g.SetTurn(m.Turn)
}

// handleSetDead setDead消息处理回调
func (h *aiMsgHandler) handleSetDead(p *Player, m *msg.SetDead) {
	pl := p.g.FindPlayer(m.PlayerId)
	if pl == nil {
		p.logger.WithFields(zap.String("PlayerId", m.PlayerId)).Warnln("ai set unknown player dead")
		return
	}
	pl.Dead = true
}

// handleStance stance消息处理回调
func (h *aiMsgHandler) handleStance(p *Player, m *msg.Stance) {
	p.g.SetStance(m.First, m.Second, m.Stance)
}

// handleAnimateMove animateMove消息处理回调
// AI没有动画，只落地移动结果。
func (h *aiMsgHandler) handleAnimateMove(p *Player, m *msg.AnimateMove) {
	if m.Unit != nil {
		if err := p.g.Apply(m.Unit); err != nil {
			p.logger.ErrorFields("ai apply move snapshot", zap.String("UnitId", m.UnitId), zap.Error(err))
			return
		}
	}

	unit := p.g.FindUnit(m.UnitId)
	if unit == nil {
		p.logger.WithFields(zap.String("UnitId", m.UnitId)).Warnln("ai animate move of unknown unit")
		return
	}
	unit.X = m.ToX
	unit.Y = m.ToY
}

// handleAnimateAttack animateAttack消息处理回调
func (h *aiMsgHandler) handleAnimateAttack(p *Player, m *msg.AnimateAttack) {
	// 战斗结果由后续的update/remove落地
}

// handleGameEnded gameEnded消息处理回调
func (h *aiMsgHandler) handleGameEnded(p *Player, m *msg.GameEnded) {
	p.gameEnded = true
	p.winnerId = m.WinnerId
}

// handleCloseMenus closeMenus消息处理回调
func (h *aiMsgHandler) handleCloseMenus(p *Player, m *msg.CloseMenus) {
	// AI没有界面
}

// handleSetAI setAI消息处理回调
func (h *aiMsgHandler) handleSetAI(p *Player, m *msg.SetAI) {
	pl := p.g.FindPlayer(m.PlayerId)
	if pl == nil {
		p.logger.WithFields(zap.String("PlayerId", m.PlayerId)).Warnln("ai set ai flag of unknown player")
		return
	}
	pl.AI = m.AI
}
