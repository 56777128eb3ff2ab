package syncstore

import (
	"errors"

	"github.com/habitloop/internal/model"
)

// ErrAuthRequired 在未绑定用户主体时返回
// 集合按用户命名空间隔离，匿名访问一律拒绝
var ErrAuthRequired = errors.New("auth required")

// Adapter 是习惯存储对远端持久化层的全部要求：
// 整集合读取、整集合覆盖写入、变更订阅，外加按日期的反思笔记。
// 订阅在建立时至少推送一次当前值，此后每次远端变更推送新集合；
// 推送语义是整体替换而非合并，最后一次整集合写入获胜。
type Adapter interface {
	GetHabits() ([]model.Habit, error)
	SetHabits(habits []model.Habit) error
	SubscribeHabits(fn func([]model.Habit)) (func(), error)

	GetLogs() ([]model.HabitLog, error)
	SetLogs(logs []model.HabitLog) error
	SubscribeLogs(fn func([]model.HabitLog)) (func(), error)

	SetReflection(date string, content model.Reflection) error
	GetReflections() (map[string]model.Reflection, error)
}
