package handler

import (
	"errors"

	"im-delivery/internal/model"
	"im-delivery/internal/service"
	"im-delivery/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(s *service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// Register 用户注册
func (h *UserHandler) Register(c *gin.Context) {
	type req struct {
		Username    string `json:"username" binding:"required"`
		PhoneNumber string `json:"phone_number" binding:"required"`
		Password    string `json:"password" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID, err := h.service.Register(c.Request.Context(), r.Username, r.PhoneNumber, r.Password)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "注册成功", &response.RegisterResponse{UserID: userID})
}

// Lookup 按用户名查询用户（需要JWT认证）
func (h *UserHandler) Lookup(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		response.BadRequest(c, "username is required")
		return
	}

	userID, publicKey, err := h.service.Lookup(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "查询用户失败")
		return
	}

	response.Success(c, &response.UserLookupResponse{UserID: userID, PublicKey: publicKey})
}

// Delete 删除用户及其全部从属数据（需要JWT认证）
func (h *UserHandler) Delete(c *gin.Context) {
	type req struct {
		UserID uint `json:"user_id" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.Delete(c.Request.Context(), r.UserID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "删除用户失败")
		return
	}

	response.SuccessWithMessage(c, "用户已删除", nil)
}
