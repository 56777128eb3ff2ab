package model

// 以下类型均为派生结果，只在查询时计算，从不持久化。

// WeeklyMetrics 表示以某日结尾的 7 天窗口统计，TotalDays 恒为 7
type WeeklyMetrics struct {
	CompletedDays int `json:"completedDays"`
	TotalDays     int `json:"totalDays"`
}

// MonthlyMetrics 表示月度统计，Consistency 采用固定 30 天分母
type MonthlyMetrics struct {
	Consistency int    `json:"consistency"`
	ActiveDays  int    `json:"activeDays"`
	Trend       string `json:"trend"`
}

// QuarterlyMetrics 表示季度汇总
type QuarterlyMetrics struct {
	HabitsMaintained   int `json:"habitsMaintained"`
	AverageConsistency int `json:"averageConsistency"`
}

// YearlyMetrics 表示年度汇总
type YearlyMetrics struct {
	TotalDaysShowedUp int    `json:"totalDaysShowedUp"`
	StrongestHabit    string `json:"strongestHabit"`
}

// IdentityRollup 按身份标签（大小写不敏感）聚合习惯数与完成动作数
// 月度与年度字段当前取同一数值，保留原始产品口径
type IdentityRollup struct {
	Name             string `json:"name"`
	HabitCount       int    `json:"habitCount"`
	ActionsThisMonth int    `json:"actionsThisMonth"`
	ActionsThisYear  int    `json:"actionsThisYear"`
}

// MilestoneProgress 表示里程碑累计进度
type MilestoneProgress struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}
