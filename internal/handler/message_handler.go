package handler

import (
	"time"

	"im-delivery/internal/service"
	"im-delivery/pkg/jwt"
	"im-delivery/pkg/response"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service *service.MessageService
}

func NewMessageHandler(s *service.MessageService) *MessageHandler {
	return &MessageHandler{service: s}
}

// Send 消息接收入口（需要JWT认证）
// 校验通过后发布到消息队列即返回200，不等待投递完成
func (h *MessageHandler) Send(c *gin.Context) {
	type req struct {
		SenderID       uint      `json:"sender_id" binding:"required"`
		ReceiverID     uint      `json:"receiver_id" binding:"required"`
		SenderUsername string    `json:"sender_username" binding:"required"`
		Content        string    `json:"message" binding:"required"`
		SendDate       time.Time `json:"send_date" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// 发送者必须是令牌持有者本人
	if r.SenderID != jwt.GetUserID(c) || r.SenderUsername != jwt.GetUsername(c) {
		response.Unauthorized(c, "token user data mismatch")
		return
	}

	if err := h.service.EnqueueMessage(c.Request.Context(),
		r.SenderID, r.ReceiverID, r.SenderUsername, r.Content, r.SendDate); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "消息已受理", nil)
}
