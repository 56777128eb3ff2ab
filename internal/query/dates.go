package query

import "time"

const (
	// DateFormat 是系统内所有日历日期的外部表示
	DateFormat = "2006-01-02"
	// TimeFormat 是习惯目标时间的表示，仅用于当日排序
	TimeFormat = "15:04"
)

// FormatDate 将时间截断为日历日期字符串
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// Today 返回指定时区下的今天
// 日界采用显式配置的时区，避免 UTC 截断在本地午夜附近漂移
func Today(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format(DateFormat)
}

// AddDays 在日期字符串上平移 n 天，日期非法时返回 false
func AddDays(date string, n int) (string, bool) {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return "", false
	}
	return t.AddDate(0, 0, n).Format(DateFormat), true
}

// Weekday 返回日期对应的周几索引（0=周日），日期非法时返回 false
func Weekday(date string) (int, bool) {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return 0, false
	}
	return int(t.Weekday()), true
}

// ValidDate 校验日期字符串是否为合法的 YYYY-MM-DD
func ValidDate(date string) bool {
	_, err := time.Parse(DateFormat, date)
	return err == nil
}
