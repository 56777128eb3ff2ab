package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("habitloop_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/login", api.Login)
	r.POST("/logout", api.Logout)

	// 需要认证的核心 API
	authed := r.Group("/api")
	authed.Use(handler.AuthRequired())
	{
		authed.GET("/habits", api.ListHabits)
		authed.POST("/habits", api.CreateHabit)
		authed.PUT("/habits/:id", api.UpdateHabit)
		authed.DELETE("/habits/:id", api.DeleteHabit)
		authed.GET("/habits/:id/milestone", api.GetMilestoneProgress)

		authed.GET("/logs", api.ListLogs)
		authed.POST("/habits/:id/logs", api.LogHabit)
		authed.DELETE("/habits/:id/logs/:date", api.RemoveLog)

		authed.GET("/today", api.GetToday)
		authed.GET("/metrics", api.GetMetrics)
		authed.GET("/identities", api.GetIdentities)
		authed.GET("/report", api.GetReport)

		authed.GET("/reflections", api.ListReflections)
		authed.PUT("/reflections/:date", api.SaveReflection)
	}

	return r
}
