package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Habit 定义了习惯模型
// Frequency 支持 "daily" 哨兵值或周几集合（0=周日）
// Identity 为自由文本的身份标签，用于身份聚合统计
// StartDate 之前习惯不生效，Time 仅用于当日排序
// 可选扩展（Milestone/Contract/DailyProgress/StackedAfter）按需填写
// NOTE: JSON 标签保持与远端存储的持久化形态一致，不可随意改名
type Habit struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Identity      string         `json:"identity"`
	Trigger       Trigger        `json:"trigger"`
	Time          string         `json:"time"`
	Cue           string         `json:"cue"`
	Reward        string         `json:"reward"`
	Frequency     Frequency      `json:"frequency"`
	Color         string         `json:"color"`
	CreatedAt     time.Time      `json:"createdAt"`
	StartDate     string         `json:"startDate,omitempty"`
	TwoMinuteRule string         `json:"twoMinuteRule,omitempty"`
	Milestone     *Milestone     `json:"milestone,omitempty"`
	Difficulty    string         `json:"difficulty,omitempty"`
	StackedAfter  string         `json:"stackedAfter,omitempty"`
	Contract      *Contract      `json:"contract,omitempty"`
	DailyProgress *DailyProgress `json:"dailyProgress,omitempty"`
}

// Trigger 描述习惯的触发情境
type Trigger struct {
	When  string `json:"when"`
	Where string `json:"where"`
}

// Milestone 表示累计型里程碑目标，Period 仅支持 year/month
type Milestone struct {
	Target int    `json:"target"`
	Unit   string `json:"unit"`
	Period string `json:"period"`
}

// Contract 表示习惯契约
type Contract struct {
	Commitment            string `json:"commitment"`
	Consequence           string `json:"consequence"`
	AccountabilityPartner string `json:"accountabilityPartner,omitempty"`
}

// DailyProgress 表示按日记录数值进度的配置
type DailyProgress struct {
	Required bool     `json:"required"`
	Measure  string   `json:"measure"`
	Target   *float64 `json:"target,omitempty"`
}

// Difficulty 可选值
const (
	DifficultyTiny     = "tiny"
	DifficultyEasy     = "easy"
	DifficultyModerate = "moderate"
)

// Frequency 表示调度频率：Daily 为每日哨兵，否则按 Weekdays 集合匹配
// 空集合表示永不排期，但历史日志仍参与统计
type Frequency struct {
	Daily    bool
	Weekdays []int
}

// DailyFrequency 返回每日频率
func DailyFrequency() Frequency {
	return Frequency{Daily: true}
}

// WeekdayFrequency 返回按周几排期的频率
func WeekdayFrequency(days ...int) Frequency {
	return Frequency{Weekdays: days}
}

// Contains 判断给定周几（0=周日）是否在排期内
func (f Frequency) Contains(weekday int) bool {
	if f.Daily {
		return true
	}
	for _, d := range f.Weekdays {
		if d == weekday {
			return true
		}
	}
	return false
}

// MarshalJSON 保持远端存储的联合形态："daily" 字符串或周几数组
func (f Frequency) MarshalJSON() ([]byte, error) {
	if f.Daily {
		return json.Marshal("daily")
	}
	if f.Weekdays == nil {
		return json.Marshal([]int{})
	}
	return json.Marshal(f.Weekdays)
}

// UnmarshalJSON 解析 "daily" 或周几数组
func (f *Frequency) UnmarshalJSON(data []byte) error {
	var sentinel string
	if err := json.Unmarshal(data, &sentinel); err == nil {
		if sentinel != "daily" {
			return fmt.Errorf("unknown frequency sentinel %q", sentinel)
		}
		*f = Frequency{Daily: true}
		return nil
	}

	var days []int
	if err := json.Unmarshal(data, &days); err != nil {
		return fmt.Errorf("invalid frequency payload: %w", err)
	}
	*f = Frequency{Weekdays: days}
	return nil
}

// HabitLog 记录单日完成情况
// (HabitID, Date) 为复合键，写入即整体覆盖，可选字段不做合并
type HabitLog struct {
	HabitID        string  `json:"habitId"`
	Date           string  `json:"date"`
	Completed      bool    `json:"completed"`
	Note           string  `json:"note,omitempty"`
	MilestoneCount int     `json:"milestoneCount,omitempty"`
	ProgressValue  float64 `json:"progressValue,omitempty"`
}

// Reflection 为按日期存储的不透明结构化笔记，原样持久化
type Reflection = json.RawMessage

// HabitState 是 (habit, date) 的三态派生分类
type HabitState string

const (
	StatePending HabitState = "pending"
	StateDone    HabitState = "done"
	StateMissed  HabitState = "missed"
)
