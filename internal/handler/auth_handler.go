package handler

import (
	"im-delivery/internal/service"
	"im-delivery/pkg/jwt"
	"im-delivery/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service *service.UserService
}

func NewAuthHandler(s *service.UserService) *AuthHandler {
	return &AuthHandler{service: s}
}

// Login 用户登录
// 成功后保存令牌与公钥、登记本次地址，并发布在线事件触发离线消息补投
func (h *AuthHandler) Login(c *gin.Context) {
	type req struct {
		Username  string `json:"username" binding:"required"`
		Password  string `json:"password" binding:"required"`
		Address   string `json:"user_address" binding:"required"`
		PublicKey string `json:"public_key"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), r.Username, r.Password, r.Address, r.PublicKey)
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "登录成功", &response.LoginResponse{
		UserID:      user.ID,
		Username:    user.Username,
		AccessToken: token,
	})
}

// Logout 用户登出（需要JWT认证）：删除会话令牌
func (h *AuthHandler) Logout(c *gin.Context) {
	type req struct {
		Username string `json:"username" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// 请求中的用户名必须与令牌一致
	if r.Username != jwt.GetUsername(c) {
		response.BadRequest(c, "username mismatch")
		return
	}

	userID := jwt.GetUserID(c)
	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		response.InternalError(c, "登出失败")
		return
	}

	response.SuccessWithMessage(c, "已登出", nil)
}
