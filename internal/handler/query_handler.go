package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/model"
	"github.com/habitloop/internal/query"
)

// streakLookbackDays 是连胜回溯上限
const streakLookbackDays = 30

type todayEntry struct {
	Habit              model.Habit              `json:"habit"`
	State              model.HabitState         `json:"state"`
	WeeklyConsistency  model.WeeklyMetrics      `json:"weeklyConsistency"`
	CurrentStreak      int                      `json:"currentStreak"`
	LastSevenDays      []query.DayMark          `json:"lastSevenDays"`
	Milestone          *model.MilestoneProgress `json:"milestoneProgress,omitempty"`
	CumulativeProgress float64                  `json:"cumulativeProgress,omitempty"`
}

// GetToday 返回某日的待办与已完成习惯，默认取配置时区下的今天
func (a *API) GetToday(c *gin.Context) {
	date := c.DefaultQuery("date", query.Today(a.dayBoundary))
	if !query.ValidDate(date) {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	st := a.storeFor(currentUserID(c))
	snap := st.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"date":      date,
		"loaded":    st.Loaded(),
		"due":       a.todayEntries(snap, snap.DueOn(date), date),
		"completed": a.todayEntries(snap, snap.CompletedOn(date), date),
	})
}

func (a *API) todayEntries(snap query.Snapshot, habits []model.Habit, date string) []todayEntry {
	entries := make([]todayEntry, 0, len(habits))
	for _, habit := range habits {
		entry := todayEntry{
			Habit:             habit,
			State:             snap.State(habit.ID, date),
			WeeklyConsistency: snap.WeeklyConsistency(habit.ID, date),
			CurrentStreak:     snap.CurrentStreak(habit.ID, date, streakLookbackDays),
			LastSevenDays:     snap.Last7Days(habit.ID, date),
		}

		if habit.Milestone != nil {
			if progress, err := snap.MilestoneProgress(habit.ID); err == nil {
				entry.Milestone = &progress
			}
		}
		if habit.DailyProgress != nil {
			entry.CumulativeProgress = snap.CumulativeProgress(habit.ID)
		}

		entries = append(entries, entry)
	}
	return entries
}

// GetMetrics 按级别返回月度/季度/年度指标
func (a *API) GetMetrics(c *gin.Context) {
	snap := a.storeFor(currentUserID(c)).Snapshot()

	switch strings.ToLower(c.DefaultQuery("level", "monthly")) {
	case "monthly":
		items := make([]gin.H, 0, len(snap.Habits))
		for _, habit := range snap.Habits {
			items = append(items, gin.H{
				"habitId":   habit.ID,
				"habitName": habit.Name,
				"metrics":   snap.Monthly(habit.ID),
			})
		}
		c.JSON(http.StatusOK, gin.H{"level": "monthly", "habits": items})
	case "quarterly":
		c.JSON(http.StatusOK, gin.H{"level": "quarterly", "metrics": snap.Quarterly()})
	case "yearly":
		c.JSON(http.StatusOK, gin.H{"level": "yearly", "metrics": snap.Yearly()})
	default:
		respondError(c, http.StatusBadRequest, "未知的统计级别")
	}
}

// GetIdentities 返回身份聚合
func (a *API) GetIdentities(c *gin.Context) {
	snap := a.storeFor(currentUserID(c)).Snapshot()
	c.JSON(http.StatusOK, gin.H{"identities": snap.IdentityRollups()})
}

// GetMilestoneProgress 返回单个习惯的里程碑进度
func (a *API) GetMilestoneProgress(c *gin.Context) {
	snap := a.storeFor(currentUserID(c)).Snapshot()

	progress, err := snap.MilestoneProgress(c.Param("id"))
	if err != nil {
		if errors.Is(err, query.ErrHabitNotFound) {
			respondError(c, http.StatusNotFound, "习惯不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "计算里程碑进度失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

type reportDay struct {
	Date  string   `json:"date"`
	Total int      `json:"total"`
	Done  []string `json:"done"`
}

// GetReport 返回日期区间内的打卡网格：
// 每日完成明细、单习惯累计与总完成数，天序为最近在前
func (a *API) GetReport(c *gin.Context) {
	start, end, ok := a.resolveReportRange(c.DefaultQuery("view", "30days"), c.Query("start"), c.Query("end"))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的报表区间")
		return
	}

	snap := a.storeFor(currentUserID(c)).Snapshot()
	habits := snap.HabitsByTime()

	days := make([]reportDay, 0)
	for date := start; date <= end; {
		day := reportDay{Date: date, Done: make([]string, 0)}
		for _, habit := range habits {
			if snap.State(habit.ID, date) == model.StateDone {
				day.Done = append(day.Done, habit.ID)
			}
		}
		day.Total = len(day.Done)
		days = append(days, day)

		next, stepped := query.AddDays(date, 1)
		if !stepped {
			break
		}
		date = next
	}

	// 最近的日期排在最前
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}

	columns := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		columns = append(columns, gin.H{
			"id":    habit.ID,
			"name":  habit.Name,
			"color": habit.Color,
			"total": snap.ActiveDays(habit.ID),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"range":      gin.H{"start": start, "end": end},
		"habits":     columns,
		"days":       days,
		"grandTotal": snap.GrandTotal(),
	})
}

func (a *API) resolveReportRange(view, start, end string) (string, string, bool) {
	now := time.Now().In(a.dayBoundary)
	today := query.FormatDate(now)

	switch strings.ToLower(view) {
	case "month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, a.dayBoundary)
		return query.FormatDate(first), today, true
	case "year":
		first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, a.dayBoundary)
		return query.FormatDate(first), today, true
	case "custom":
		if !query.ValidDate(start) || !query.ValidDate(end) || end < start {
			return "", "", false
		}
		return start, end, true
	default:
		first, _ := query.AddDays(today, -29)
		return first, today, true
	}
}
