package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/model"
	"github.com/habitloop/internal/query"
	"github.com/habitloop/internal/store"
	"github.com/habitloop/internal/syncstore"
)

// SaveReflection 按日期保存反思笔记，请求体原样持久化
func (a *API) SaveReflection(c *gin.Context) {
	date := c.Param("date")
	if !query.ValidDate(date) {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		respondError(c, http.StatusBadRequest, "请求参数不合法")
		return
	}

	if err := a.storeFor(currentUserID(c)).SaveReflection(date, model.Reflection(body)); err != nil {
		switch {
		case errors.Is(err, syncstore.ErrAuthRequired):
			respondError(c, http.StatusUnauthorized, "请先登录")
		case errors.Is(err, store.ErrValidation):
			respondError(c, http.StatusBadRequest, "无效的日期")
		default:
			respondError(c, http.StatusInternalServerError, "保存反思失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": true})
}

// ListReflections 返回全部反思笔记
// rendered=true 时将笔记里的自由文本渲染为净化后的 HTML
func (a *API) ListReflections(c *gin.Context) {
	reflections, err := a.storeFor(currentUserID(c)).Reflections()
	if err != nil {
		if errors.Is(err, syncstore.ErrAuthRequired) {
			respondError(c, http.StatusUnauthorized, "请先登录")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取反思列表失败")
		return
	}

	if c.Query("rendered") == "true" {
		for date, content := range reflections {
			reflections[date] = a.reflections.RenderValues(content)
		}
	}

	c.JSON(http.StatusOK, gin.H{"reflections": reflections})
}
