package query

import (
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/habitloop/internal/model"
)

// ErrHabitNotFound 在查询要求读取习惯配置而习惯不存在时返回
var ErrHabitNotFound = errors.New("habit not found")

// monthlyWindowDays 是月度一致性的固定分母
// 按既有产品口径不做日历月对齐
const monthlyWindowDays = 30

// Snapshot 是某一时刻的只读数据快照
// 查询引擎只读快照，从不回写存储
type Snapshot struct {
	Habits []model.Habit
	Logs   []model.HabitLog
}

// FindHabit 按 ID 查找习惯
func (s Snapshot) FindHabit(id string) (model.Habit, bool) {
	for _, h := range s.Habits {
		if h.ID == id {
			return h, true
		}
	}
	return model.Habit{}, false
}

func (s Snapshot) findLog(habitID, date string) (model.HabitLog, bool) {
	for _, l := range s.Logs {
		if l.HabitID == habitID && l.Date == date {
			return l, true
		}
	}
	return model.HabitLog{}, false
}

// State 返回 (habit, date) 的三态分类：无日志为 pending，
// 有日志按 completed 区分 done/missed，不存在第四种状态
func (s Snapshot) State(habitID, date string) model.HabitState {
	log, ok := s.findLog(habitID, date)
	if !ok {
		return model.StatePending
	}
	if log.Completed {
		return model.StateDone
	}
	return model.StateMissed
}

// IsScheduledOn 判断习惯在给定日期是否排期
// 生效日之前一律不排期；字符串比较对 YYYY-MM-DD 成立
func IsScheduledOn(habit model.Habit, date string) bool {
	start := habit.StartDate
	if start != "" && date < start {
		return false
	}
	weekday, ok := Weekday(date)
	if !ok {
		return false
	}
	return habit.Frequency.Contains(weekday)
}

// WeeklyConsistency 统计以 endDate 结尾（含当日）的 7 天完成数
// TotalDays 恒为 7，与排期和生效日无关，比例语义由调用方解释
func (s Snapshot) WeeklyConsistency(habitID, endDate string) model.WeeklyMetrics {
	metrics := model.WeeklyMetrics{TotalDays: 7}
	for i := 0; i < 7; i++ {
		date, ok := AddDays(endDate, -i)
		if !ok {
			break
		}
		if log, ok := s.findLog(habitID, date); ok && log.Completed {
			metrics.CompletedDays++
		}
	}
	return metrics
}

// ActiveDays 返回习惯累计完成天数
func (s Snapshot) ActiveDays(habitID string) int {
	count := 0
	for _, l := range s.Logs {
		if l.HabitID == habitID && l.Completed {
			count++
		}
	}
	return count
}

// MonthlyConsistency 返回完成数对固定 30 天分母的百分比
func (s Snapshot) MonthlyConsistency(habitID string) int {
	return int(math.Round(float64(s.ActiveDays(habitID)) / monthlyWindowDays * 100))
}

// Monthly 汇总单个习惯的月度指标，Trend 当前恒为 stable
func (s Snapshot) Monthly(habitID string) model.MonthlyMetrics {
	return model.MonthlyMetrics{
		Consistency: s.MonthlyConsistency(habitID),
		ActiveDays:  s.ActiveDays(habitID),
		Trend:       "stable",
	}
}

// Quarterly 汇总全部习惯的季度指标
func (s Snapshot) Quarterly() model.QuarterlyMetrics {
	metrics := model.QuarterlyMetrics{HabitsMaintained: len(s.Habits)}
	if len(s.Habits) == 0 {
		return metrics
	}

	total := 0
	for _, h := range s.Habits {
		total += s.MonthlyConsistency(h.ID)
	}
	metrics.AverageConsistency = int(math.Round(float64(total) / float64(len(s.Habits))))
	return metrics
}

// Yearly 汇总年度指标：总完成数与月度一致性最高的习惯
func (s Snapshot) Yearly() model.YearlyMetrics {
	metrics := model.YearlyMetrics{}
	for _, l := range s.Logs {
		if l.Completed {
			metrics.TotalDaysShowedUp++
		}
	}

	best := -1
	for _, h := range s.Habits {
		if consistency := s.MonthlyConsistency(h.ID); consistency > best {
			best = consistency
			metrics.StrongestHabit = h.Name
		}
	}
	return metrics
}

// CumulativeProgress 累加习惯所有日志的非零进度值
// 累计值只在查询时派生，日志里只存当日增量
func (s Snapshot) CumulativeProgress(habitID string) float64 {
	var total float64
	for _, l := range s.Logs {
		if l.HabitID == habitID && l.ProgressValue != 0 {
			total += l.ProgressValue
		}
	}
	return total
}

// MilestoneProgress 累加已完成日志的里程碑计数并换算百分比
// 需要读取习惯的里程碑配置，习惯不存在时返回 ErrHabitNotFound
func (s Snapshot) MilestoneProgress(habitID string) (model.MilestoneProgress, error) {
	habit, ok := s.FindHabit(habitID)
	if !ok {
		return model.MilestoneProgress{}, ErrHabitNotFound
	}

	progress := model.MilestoneProgress{}
	for _, l := range s.Logs {
		if l.HabitID == habitID && l.Completed && l.MilestoneCount != 0 {
			progress.Count += l.MilestoneCount
		}
	}

	if habit.Milestone != nil && habit.Milestone.Target > 0 {
		progress.Percentage = math.Min(float64(progress.Count)/float64(habit.Milestone.Target)*100, 100)
	}
	return progress, nil
}

// CurrentStreak 从 asOf 向前统计连续完成天数
// 遇到第一个非 done 日或达到回溯上限即停止
func (s Snapshot) CurrentStreak(habitID, asOf string, lookbackLimit int) int {
	streak := 0
	for i := 0; i < lookbackLimit; i++ {
		date, ok := AddDays(asOf, -i)
		if !ok {
			break
		}
		if s.State(habitID, date) != model.StateDone {
			break
		}
		streak++
	}
	return streak
}

// Last7Days 返回以 endDate 结尾的 7 天完成标记，供打卡条渲染
func (s Snapshot) Last7Days(habitID, endDate string) []DayMark {
	marks := make([]DayMark, 0, 7)
	for i := 6; i >= 0; i-- {
		date, ok := AddDays(endDate, -i)
		if !ok {
			continue
		}
		marks = append(marks, DayMark{
			Date:      date,
			Completed: s.State(habitID, date) == model.StateDone,
		})
	}
	return marks
}

// DayMark 表示 7 天打卡条中的单日标记
type DayMark struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// IdentityRollups 按身份标签（统一转小写）聚合
// 月度与年度动作数取同一完成总数，保留原始产品口径
func (s Snapshot) IdentityRollups() []model.IdentityRollup {
	index := make(map[string]int)
	rollups := make([]model.IdentityRollup, 0)

	for _, h := range s.Habits {
		name := strings.ToLower(h.Identity)
		pos, seen := index[name]
		if !seen {
			pos = len(rollups)
			index[name] = pos
			rollups = append(rollups, model.IdentityRollup{Name: name})
		}

		actions := s.ActiveDays(h.ID)
		rollups[pos].HabitCount++
		rollups[pos].ActionsThisMonth += actions
		rollups[pos].ActionsThisYear += actions
	}

	return rollups
}

// DueOn 返回指定日期已排期且尚未完成的习惯，按目标时间排序
func (s Snapshot) DueOn(date string) []model.Habit {
	return s.selectOn(date, false)
}

// CompletedOn 返回指定日期已排期且已完成的习惯，按目标时间排序
func (s Snapshot) CompletedOn(date string) []model.Habit {
	return s.selectOn(date, true)
}

func (s Snapshot) selectOn(date string, done bool) []model.Habit {
	habits := make([]model.Habit, 0)
	for _, h := range s.Habits {
		if !IsScheduledOn(h, date) {
			continue
		}
		if (s.State(h.ID, date) == model.StateDone) == done {
			habits = append(habits, h)
		}
	}

	slices.SortStableFunc(habits, func(a, b model.Habit) int {
		return strings.Compare(a.Time, b.Time)
	})
	return habits
}

// DayTotal 统计某日完成的习惯数，供报表网格使用
func (s Snapshot) DayTotal(date string) int {
	count := 0
	for _, h := range s.Habits {
		if s.State(h.ID, date) == model.StateDone {
			count++
		}
	}
	return count
}

// GrandTotal 返回全部已完成日志数
func (s Snapshot) GrandTotal() int {
	count := 0
	for _, l := range s.Logs {
		if l.Completed {
			count++
		}
	}
	return count
}

// HabitsByTime 返回按目标时间排序的全部习惯，供报表列头使用
func (s Snapshot) HabitsByTime() []model.Habit {
	habits := slices.Clone(s.Habits)
	slices.SortStableFunc(habits, func(a, b model.Habit) int {
		return strings.Compare(a.Time, b.Time)
	})
	return habits
}
