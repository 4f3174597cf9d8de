package handler

import (
	"im-delivery/internal/service"
	"im-delivery/pkg/jwt"
	"im-delivery/pkg/logger"
	"im-delivery/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionMiddleware 单会话校验中间件，叠加在JWT中间件之后
// JWT只能证明令牌签发过，不能证明它还是当前会话：
// 这里把令牌与两层存储里的当前令牌比对，登出或重新登录后旧令牌即失效
func SessionMiddleware(store *service.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := jwt.GetUserID(c)
		token := jwt.GetToken(c)

		ok, err := store.CheckUserToken(c.Request.Context(), userID, token)
		if err != nil {
			logger.Error("会话令牌校验失败", zap.Uint("user_id", userID), zap.Error(err))
			response.InternalError(c, "会话校验失败")
			c.Abort()
			return
		}
		if !ok {
			response.Unauthorized(c, "会话已失效，请重新登录")
			c.Abort()
			return
		}

		c.Next()
	}
}
