package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/model"
	"github.com/habitloop/internal/query"
	"github.com/habitloop/internal/store"
)

// ListHabits 返回当前用户的习惯集合与加载状态
func (a *API) ListHabits(c *gin.Context) {
	st := a.storeFor(currentUserID(c))

	c.JSON(http.StatusOK, gin.H{
		"loaded": st.Loaded(),
		"habits": st.Habits(),
	})
}

// CreateHabit 创建习惯
// 请求体直接使用习惯的持久化 JSON 形态，ID 与创建时间由存储分配
func (a *API) CreateHabit(c *gin.Context) {
	var habit model.Habit
	if !bindJSON(c, &habit, "请求参数不合法") {
		return
	}

	created, err := a.storeFor(currentUserID(c)).AddHabit(habit)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			respondError(c, http.StatusBadRequest, "必填字段不能为空")
			return
		}
		respondError(c, http.StatusInternalServerError, "创建习惯失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": created})
}

// UpdateHabit 更新习惯，ID 与创建时间保持不变
func (a *API) UpdateHabit(c *gin.Context) {
	var habit model.Habit
	if !bindJSON(c, &habit, "请求参数不合法") {
		return
	}
	habit.ID = c.Param("id")

	if err := a.storeFor(currentUserID(c)).UpdateHabit(habit); err != nil {
		if errors.Is(err, store.ErrValidation) {
			respondError(c, http.StatusBadRequest, "必填字段不能为空")
			return
		}
		respondError(c, http.StatusInternalServerError, "更新习惯失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// DeleteHabit 删除习惯并级联删除其日志
func (a *API) DeleteHabit(c *gin.Context) {
	a.storeFor(currentUserID(c)).DeleteHabit(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// LogHabit 为习惯写入单日打卡记录，同键记录整条覆盖
func (a *API) LogHabit(c *gin.Context) {
	var payload struct {
		Date           string  `json:"date"`
		Completed      bool    `json:"completed"`
		Note           string  `json:"note"`
		MilestoneCount int     `json:"milestoneCount"`
		ProgressValue  float64 `json:"progressValue"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	err := a.storeFor(currentUserID(c)).LogHabit(store.LogInput{
		HabitID:        c.Param("id"),
		Date:           payload.Date,
		Completed:      payload.Completed,
		Note:           payload.Note,
		MilestoneCount: payload.MilestoneCount,
		ProgressValue:  payload.ProgressValue,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的打卡日期")
		return
	}

	c.JSON(http.StatusOK, gin.H{"logged": true})
}

// RemoveLog 撤销单日打卡
func (a *API) RemoveLog(c *gin.Context) {
	date := c.Param("date")
	if !query.ValidDate(date) {
		respondError(c, http.StatusBadRequest, "无效的打卡日期")
		return
	}

	a.storeFor(currentUserID(c)).RemoveLog(c.Param("id"), date)
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// ListLogs 返回当前用户的全部打卡记录
func (a *API) ListLogs(c *gin.Context) {
	st := a.storeFor(currentUserID(c))

	c.JSON(http.StatusOK, gin.H{
		"loaded": st.Loaded(),
		"logs":   st.Logs(),
	})
}
