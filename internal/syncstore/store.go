package syncstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/habitloop/internal/db"
	"github.com/habitloop/internal/model"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 集合名称与远端存储的命名保持一致
const (
	collectionHabits = "habits"
	collectionLogs   = "logs"
)

// Store 以 sqlite 行承载按用户隔离的整集合 JSON 负载，
// 并通过进程内通知中心实现变更订阅。
// 升级为按记录持久化时只需替换本实现，Adapter 契约不变。
type Store struct {
	db  *gorm.DB
	hub *hub
	log zerolog.Logger
}

// NewStore 构造 Store
func NewStore(gdb *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{db: gdb, hub: newHub(), log: logger}
}

// ForUser 返回绑定到指定用户命名空间的 Adapter
// userID 为 0 表示未认证，所有调用返回 ErrAuthRequired
func (s *Store) ForUser(userID uint) Adapter {
	return &userAdapter{store: s, userID: userID}
}

type userAdapter struct {
	store  *Store
	userID uint
}

func (a *userAdapter) get(name string, dst any) error {
	if a.userID == 0 {
		return ErrAuthRequired
	}

	var row db.Collection
	err := a.store.db.Where("user_id = ? AND name = ?", a.userID, name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load collection %s: %w", name, err)
	}

	if err := json.Unmarshal([]byte(row.Payload), dst); err != nil {
		return fmt.Errorf("decode collection %s: %w", name, err)
	}
	return nil
}

func (a *userAdapter) set(name string, value any) error {
	if a.userID == 0 {
		return ErrAuthRequired
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", name, err)
	}

	row := db.Collection{UserID: a.userID, Name: name, Payload: string(payload)}
	if err := a.store.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("save collection %s: %w", name, err)
	}

	a.store.hub.notify(a.userID, name, payload)
	return nil
}

func (a *userAdapter) subscribe(name string, fn func([]byte)) (func(), error) {
	if a.userID == 0 {
		return nil, ErrAuthRequired
	}

	// 订阅建立时先推送一次当前值，保持“先加载后增量”的语义
	var row db.Collection
	err := a.store.db.Where("user_id = ? AND name = ?", a.userID, name).First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load collection %s: %w", name, err)
	}
	fn([]byte(row.Payload))

	return a.store.hub.add(a.userID, name, fn), nil
}

// GetHabits 读取整份习惯集合
func (a *userAdapter) GetHabits() ([]model.Habit, error) {
	habits := make([]model.Habit, 0)
	if err := a.get(collectionHabits, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

// SetHabits 整体覆盖习惯集合
func (a *userAdapter) SetHabits(habits []model.Habit) error {
	if habits == nil {
		habits = make([]model.Habit, 0)
	}
	return a.set(collectionHabits, habits)
}

// SubscribeHabits 订阅习惯集合变更
func (a *userAdapter) SubscribeHabits(fn func([]model.Habit)) (func(), error) {
	return a.subscribe(collectionHabits, func(payload []byte) {
		fn(decodeSlice[model.Habit](payload, a.store.log))
	})
}

// GetLogs 读取整份日志集合
func (a *userAdapter) GetLogs() ([]model.HabitLog, error) {
	logs := make([]model.HabitLog, 0)
	if err := a.get(collectionLogs, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// SetLogs 整体覆盖日志集合
func (a *userAdapter) SetLogs(logs []model.HabitLog) error {
	if logs == nil {
		logs = make([]model.HabitLog, 0)
	}
	return a.set(collectionLogs, logs)
}

// SubscribeLogs 订阅日志集合变更
func (a *userAdapter) SubscribeLogs(fn func([]model.HabitLog)) (func(), error) {
	return a.subscribe(collectionLogs, func(payload []byte) {
		fn(decodeSlice[model.HabitLog](payload, a.store.log))
	})
}

// SetReflection 按日期保存反思笔记，内容原样存储
func (a *userAdapter) SetReflection(date string, content model.Reflection) error {
	if a.userID == 0 {
		return ErrAuthRequired
	}

	row := db.ReflectionEntry{UserID: a.userID, Date: date, Payload: string(content)}
	if err := a.store.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("save reflection: %w", err)
	}
	return nil
}

// GetReflections 返回该用户全部反思笔记，按日期索引
func (a *userAdapter) GetReflections() (map[string]model.Reflection, error) {
	if a.userID == 0 {
		return nil, ErrAuthRequired
	}

	var rows []db.ReflectionEntry
	if err := a.store.db.Where("user_id = ?", a.userID).Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}

	reflections := make(map[string]model.Reflection, len(rows))
	for _, row := range rows {
		reflections[row.Date] = model.Reflection(row.Payload)
	}
	return reflections, nil
}

func decodeSlice[T any](payload []byte, logger zerolog.Logger) []T {
	items := make([]T, 0)
	if len(payload) == 0 {
		return items
	}
	if err := json.Unmarshal(payload, &items); err != nil {
		logger.Warn().Err(err).Msg("discard undecodable collection push")
		return make([]T, 0)
	}
	return items
}

// hub 是进程内的订阅通知中心
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func([]byte)
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]func([]byte))}
}

func hubKey(userID uint, name string) string {
	return fmt.Sprintf("%d/%s", userID, name)
}

func (h *hub) add(userID uint, name string, fn func([]byte)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := hubKey(userID, name)
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]func([]byte))
	}
	h.nextID++
	id := h.nextID
	h.subs[key][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[key], id)
	}
}

func (h *hub) notify(userID uint, name string, payload []byte) {
	h.mu.Lock()
	fns := make([]func([]byte), 0, len(h.subs[hubKey(userID, name)]))
	for _, fn := range h.subs[hubKey(userID, name)] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(payload)
	}
}
