package client

import (
	"fmt"

	"github.com/godyy/gcolony/msg"
	"go.uber.org/zap"
)

// 客户端消息处理器单例
var clientMsgHandlerSingleton = newClientMsgHandlers()

// clientMsgCallback 客户端消息处理回调
type clientMsgCallback interface {
	tag() string
	call(*Client, msg.Msg)
}

// clientMsgCallbackWrapper 客户端消息处理回调包装器
type clientMsgCallbackWrapper[M msg.Msg] struct {
	callback func(*Client, M)
}

func (w clientMsgCallbackWrapper[M]) tag() string {
	return (*new(M)).Tag()
}

func (w clientMsgCallbackWrapper[M]) call(c *Client, m msg.Msg) {
	w.callback(c, m.(M))
}

func wrapClientMsgCallback[M msg.Msg](callback func(*Client, M)) clientMsgCallback {
	return clientMsgCallbackWrapper[M]{callback: callback}
}

// clientMsgHandler 客户端消息处理器
type clientMsgHandler struct {
	callbacks map[string]clientMsgCallback
}

func newClientMsgHandlers() *clientMsgHandler {
	h := &clientMsgHandler{
		callbacks: map[string]clientMsgCallback{},
	}
	h.registerCallback(wrapClientMsgCallback(h.handleError))
	h.registerCallback(wrapClientMsgCallback(h.handleChat))
	h.registerCallback(wrapClientMsgCallback(h.handleAddPlayer))
	h.registerCallback(wrapClientMsgCallback(h.handleRemovePlayer))
	h.registerCallback(wrapClientMsgCallback(h.handleUpdate))
	h.registerCallback(wrapClientMsgCallback(h.handlePartial))
	h.registerCallback(wrapClientMsgCallback(h.handleRemove))
	h.registerCallback(wrapClientMsgCallback(h.handleSetCurrentPlayer))
	h.registerCallback(wrapClientMsgCallback(h.handleNewTurn))
	h.registerCallback(wrapClientMsgCallback(h.handleSetDead))
	h.registerCallback(wrapClientMsgCallback(h.handleStance))
	h.registerCallback(wrapClientMsgCallback(h.handleAnimateMove))
	h.registerCallback(wrapClientMsgCallback(h.handleAnimateAttack))
	h.registerCallback(wrapClientMsgCallback(h.handleGameEnded))
	h.registerCallback(wrapClientMsgCallback(h.handleCloseMenus))
	h.registerCallback(wrapClientMsgCallback(h.handleSetAI))
	return h
}

// registerCallback 注册消息处理回调
func (h *clientMsgHandler) registerCallback(callback clientMsgCallback) {
	tag := callback.tag()
	if _, ok := h.callbacks[tag]; ok {
		panic(fmt.Errorf("duplicate clientMsgCallback of tag %q", tag))
	}
	h.callbacks[tag] = callback
}

// handleMsg 处理消息
func (h *clientMsgHandler) handleMsg(c *Client, m msg.Msg) {
	callback := h.callbacks[m.Tag()]
	if callback == nil {
		c.logger.WithFields(zap.String("Tag", m.Tag())).Warnln("client receive unhandled msg")
		return
	}

	callback.call(c, m)
}

// handleError error消息处理回调
func (h *clientMsgHandler) handleError(c *Client, m *msg.Error) {
	c.logger.ErrorFields("server error", zap.String("TemplateId", m.TemplateId), zap.String("Message", m.Message))
	if c.onError != nil {
		c.onError(m.TemplateId, m.Message)
	}
}

// handleChat chat消息处理回调
func (h *clientMsgHandler) handleChat(c *Client, m *msg.Chat) {
	if c.onChat != nil {
		c.onChat(m.Sender, m.Message, m.Private)
	}
}

// handleAddPlayer addPlayer消息处理回调
func (h *clientMsgHandler) handleAddPlayer(c *Client, m *msg.AddPlayer) {
	for _, p := range m.Players {
		c.g.AddPlayer(p)
	}
}

// handleRemovePlayer removePlayer消息处理回调
func (h *clientMsgHandler) handleRemovePlayer(c *Client, m *msg.RemovePlayer) {
	if c.g.FindPlayer(m.PlayerId) == nil {
		c.logger.WithFields(zap.String("PlayerId", m.PlayerId)).Warnln("client remove unknown player")
		return
	}
	c.g.RemovePlayer(m.PlayerId)
}

// handleUpdate update消息处理回调
func (h *clientMsgHandler) handleUpdate(c *Client, m *msg.Update) {
	for _, o := range m.Objects {
		if err := c.g.Apply(o); err != nil {
			c.logger.ErrorFields("client apply update", zap.String("ObjectId", o.ObjectId()), zap.Error(err))
		}
	}
}

// handlePartial partial消息处理回调
// 未知对象不算错误，可能只是还没进入自己的视野。
func (h *clientMsgHandler) handlePartial(c *Client, m *msg.Partial) {
	if err := c.g.ApplyPartial(m.ObjectId, m.Attrs); err != nil {
		c.logger.WithFields(zap.String("ObjectId", m.ObjectId), zap.Error(err)).Warnln("client apply partial")
	}
}

// handleRemove remove消息处理回调
func (h *clientMsgHandler) handleRemove(c *Client, m *msg.Remove) {
	for _, id := range m.ObjectIds {
		c.g.Remove(id)
	}
}

// handleSetCurrentPlayer setCurrentPlayer消息处理回调
func (h *clientMsgHandler) handleSetCurrentPlayer(c *Client, m *msg.SetCurrentPlayer) {
	if c.g.FindPlayer(m.PlayerId) == nil {
		c.logger.WithFields(zap.String("PlayerId", m.PlayerId)).Warnln("client set unknown current player")
		return
	}
	c.g.SetCurrentPlayer(m.PlayerId)
}

// handleNewTurn newTurn消息处理回调
func (h *clientMsgHandler) handleNewTurn(c *Client, m *msg.NewTurn) {
	c.g.SetTurn(m.Turn)
}

// handleSetDead setDead消息处理回调
func (h *clientMsgHandler) handleSetDead(c *Client, m *msg.SetDead) {
	p := c.g.FindPlayer(m.PlayerId)
	if p == nil {
		c.logger.WithFields(zap.String("PlayerId", m.PlayerId)).Warnln("client set unknown player dead")
		return
	}
	p.Dead = true
}

// handleStance stance消息处理回调
func (h *clientMsgHandler) handleStance(c *Client, m *msg.Stance) {
	c.g.SetStance(m.First, m.Second, m.Stance)
}

// handleAnimateMove animateMove消息处理回调
// 动画由界面层表现，模型只落地移动结果。
func (h *clientMsgHandler) handleAnimateMove(c *Client, m *msg.AnimateMove) {
	if m.Unit != nil {
		if err := c.g.Apply(m.Unit); err != nil {
			c.logger.ErrorFields("client apply move snapshot", zap.String("UnitId", m.UnitId), zap.Error(err))
			return
		}
	}

	unit := c.g.FindUnit(m.UnitId)
	if unit == nil {
		c.logger.WithFields(zap.String("UnitId", m.UnitId)).Warnln("client animate move of unknown unit")
		return
	}
	unit.X = m.ToX
	unit.Y = m.ToY
}

// handleAnimateAttack animateAttack消息处理回调
func (h *clientMsgHandler) handleAnimateAttack(c *Client, m *msg.AnimateAttack) {
	// 战斗结果由后续的update/remove落地
}

// handleGameEnded gameEnded消息处理回调
func (h *clientMsgHandler) handleGameEnded(c *Client, m *msg.GameEnded) {
	c.gameEnded = true
	c.winnerId = m.WinnerId
}

// handleCloseMenus closeMenus消息处理回调
func (h *clientMsgHandler) handleCloseMenus(c *Client, m *msg.CloseMenus) {
	// 界面层表现
}

// handleSetAI setAI消息处理回调
func (h *clientMsgHandler) handleSetAI(c *Client, m *msg.SetAI) {
	p := c.g.FindPlayer(m.PlayerId)
	if p == nil {
		c.logger.WithFields(zap.String("PlayerId", m.PlayerId)).Warnln("client set ai flag of unknown player")
		return
	}
	p.AI = m.AI
}
