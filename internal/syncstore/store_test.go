package syncstore

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/habitloop/internal/db"
	"github.com/habitloop/internal/model"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

// newTestStore 基于内存 sqlite 构造 Store，按测试名隔离数据库
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.Collection{}, &db.ReflectionEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return NewStore(gdb, zerolog.Nop())
}

func TestForUserZeroRejectsEverything(t *testing.T) {
	adapter := newTestStore(t).ForUser(0)

	if _, err := adapter.GetHabits(); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if err := adapter.SetHabits(nil); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if _, err := adapter.SubscribeHabits(func([]model.Habit) {}); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if _, err := adapter.GetLogs(); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if err := adapter.SetReflection("2024-03-01", model.Reflection(`{}`)); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if _, err := adapter.GetReflections(); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}

func TestHabitsRoundTrip(t *testing.T) {
	adapter := newTestStore(t).ForUser(1)

	// 空账号读到空集合而不是错误
	habits, err := adapter.GetHabits()
	if err != nil {
		t.Fatalf("GetHabits returned error: %v", err)
	}
	if len(habits) != 0 {
		t.Fatalf("expected empty collection, got %d", len(habits))
	}

	want := []model.Habit{
		{ID: "h1", Name: "晨跑", Identity: "a healthy person", Frequency: model.DailyFrequency()},
		{ID: "h2", Name: "阅读", Identity: "a reader", Frequency: model.WeekdayFrequency(1, 3)},
	}
	if err := adapter.SetHabits(want); err != nil {
		t.Fatalf("SetHabits returned error: %v", err)
	}

	habits, err = adapter.GetHabits()
	if err != nil {
		t.Fatalf("GetHabits returned error: %v", err)
	}
	if len(habits) != 2 || habits[0].ID != "h1" || habits[1].Name != "阅读" {
		t.Fatalf("unexpected round trip result: %+v", habits)
	}
	if !habits[1].Frequency.Contains(3) || habits[1].Frequency.Contains(2) {
		t.Fatal("frequency lost across round trip")
	}
}

func TestSetOverwritesWholesale(t *testing.T) {
	adapter := newTestStore(t).ForUser(1)

	if err := adapter.SetLogs([]model.HabitLog{
		{HabitID: "a", Date: "2024-03-01", Completed: true},
		{HabitID: "a", Date: "2024-03-02", Completed: true},
	}); err != nil {
		t.Fatalf("SetLogs returned error: %v", err)
	}
	if err := adapter.SetLogs([]model.HabitLog{
		{HabitID: "b", Date: "2024-03-05", Completed: false},
	}); err != nil {
		t.Fatalf("SetLogs returned error: %v", err)
	}

	logs, err := adapter.GetLogs()
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(logs) != 1 || logs[0].HabitID != "b" {
		t.Fatalf("expected wholesale overwrite, got %+v", logs)
	}
}

func TestSubscribeFiresWithCurrentValueThenUpdates(t *testing.T) {
	adapter := newTestStore(t).ForUser(1)

	if err := adapter.SetHabits([]model.Habit{{ID: "seed", Name: "冥想"}}); err != nil {
		t.Fatalf("SetHabits returned error: %v", err)
	}

	var pushes [][]model.Habit
	unsub, err := adapter.SubscribeHabits(func(habits []model.Habit) {
		pushes = append(pushes, habits)
	})
	if err != nil {
		t.Fatalf("SubscribeHabits returned error: %v", err)
	}
	defer unsub()

	// 订阅建立即推送当前值
	if len(pushes) != 1 || len(pushes[0]) != 1 || pushes[0][0].ID != "seed" {
		t.Fatalf("expected initial push with current value, got %+v", pushes)
	}

	if err := adapter.SetHabits([]model.Habit{{ID: "next", Name: "散步"}}); err != nil {
		t.Fatalf("SetHabits returned error: %v", err)
	}
	if len(pushes) != 2 || pushes[1][0].ID != "next" {
		t.Fatalf("expected push after set, got %+v", pushes)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	adapter := newTestStore(t).ForUser(1)

	pushes := 0
	unsub, err := adapter.SubscribeLogs(func([]model.HabitLog) { pushes++ })
	if err != nil {
		t.Fatalf("SubscribeLogs returned error: %v", err)
	}
	if pushes != 1 {
		t.Fatalf("expected initial push, got %d", pushes)
	}

	unsub()
	if err := adapter.SetLogs([]model.HabitLog{{HabitID: "a", Date: "2024-03-01"}}); err != nil {
		t.Fatalf("SetLogs returned error: %v", err)
	}
	if pushes != 1 {
		t.Fatalf("expected no push after unsubscribe, got %d", pushes)
	}
}

func TestPerUserIsolation(t *testing.T) {
	store := newTestStore(t)
	first := store.ForUser(1)
	second := store.ForUser(2)

	if err := first.SetHabits([]model.Habit{{ID: "h1", Name: "晨跑"}}); err != nil {
		t.Fatalf("SetHabits returned error: %v", err)
	}

	habits, err := second.GetHabits()
	if err != nil {
		t.Fatalf("GetHabits returned error: %v", err)
	}
	if len(habits) != 0 {
		t.Fatalf("expected empty collection for other user, got %+v", habits)
	}

	// 订阅通知同样按用户隔离
	pushes := 0
	unsub, err := second.SubscribeHabits(func([]model.Habit) { pushes++ })
	if err != nil {
		t.Fatalf("SubscribeHabits returned error: %v", err)
	}
	defer unsub()

	if err := first.SetHabits([]model.Habit{{ID: "h2", Name: "阅读"}}); err != nil {
		t.Fatalf("SetHabits returned error: %v", err)
	}
	if pushes != 1 {
		t.Fatalf("expected only the initial push for other user, got %d", pushes)
	}
}

func TestReflectionsUpsertByDate(t *testing.T) {
	adapter := newTestStore(t).ForUser(1)

	if err := adapter.SetReflection("2024-03-01", model.Reflection(`{"wins":"早起"}`)); err != nil {
		t.Fatalf("SetReflection returned error: %v", err)
	}
	// 同日期重写覆盖旧内容
	if err := adapter.SetReflection("2024-03-01", model.Reflection(`{"wins":"早起并晨跑"}`)); err != nil {
		t.Fatalf("SetReflection returned error: %v", err)
	}
	if err := adapter.SetReflection("2024-03-02", model.Reflection(`{"wins":"读完一章"}`)); err != nil {
		t.Fatalf("SetReflection returned error: %v", err)
	}

	reflections, err := adapter.GetReflections()
	if err != nil {
		t.Fatalf("GetReflections returned error: %v", err)
	}
	if len(reflections) != 2 {
		t.Fatalf("expected 2 reflections, got %d", len(reflections))
	}
	if string(reflections["2024-03-01"]) != `{"wins":"早起并晨跑"}` {
		t.Fatalf("expected latest content to win, got %s", reflections["2024-03-01"])
	}
}
