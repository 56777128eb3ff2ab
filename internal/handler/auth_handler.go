package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/db"
	"golang.org/x/crypto/bcrypt"
)

const sessionUserIDKey = "user_id"

// Login 处理用户登录请求，校验通过后在会话里绑定用户主体
func (a *API) Login(c *gin.Context) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return
		}
	} else {
		payload.Username = c.PostForm("username")
		payload.Password = c.PostForm("password")
	}

	// 查找用户
	var user db.User
	if err := a.db.Where("username = ?", payload.Username).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": user.Username})
}

// Logout 处理用户登出并释放该用户的存储订阅
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if userID, ok := session.Get(sessionUserIDKey).(uint); ok {
		a.releaseStore(userID)
	}
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"loggedOut": true})
}

func (a *API) releaseStore(userID uint) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if st, ok := a.stores[userID]; ok {
		st.Close()
		delete(a.stores, userID)
	}
}

// AuthRequired 是一个简单的认证中间件
// 未绑定用户主体的请求一律返回 401，不做重定向
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if _, ok := session.Get(sessionUserIDKey).(uint); !ok {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	session := sessions.Default(c)
	if userID, ok := session.Get(sessionUserIDKey).(uint); ok {
		return userID
	}
	return 0
}
