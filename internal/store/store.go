package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/habitloop/internal/model"
	"github.com/habitloop/internal/query"
	"github.com/habitloop/internal/syncstore"
	"github.com/rs/zerolog"
)

// ErrValidation 在命令收到结构性非法输入时返回
// 表单侧应先行校验，这里只兜底必填字段
var ErrValidation = errors.New("invalid habit input")

// Store 持有权威的内存快照并负责与远端存储同步
// 生命周期：uninitialized → loading → loaded；初始拉取失败按空集合继续，
// 不重试也不阻塞上层。加载完成后订阅远端变更，推送整体替换对应集合。
// 命令同步更新内存快照，远端整集合持久化为 fire-and-forget。
type Store struct {
	adapter syncstore.Adapter
	log     zerolog.Logger
	loc     *time.Location

	mu     sync.RWMutex
	habits []model.Habit
	logs   []model.HabitLog
	loaded bool

	ready  chan struct{}
	unsubs []func()

	habitQueue chan []model.Habit
	logQueue   chan []model.HabitLog
	quit       chan struct{}
	closeOnce  sync.Once
}

// LogInput 定义打卡命令的输入
// 未提供的可选字段在覆盖旧记录时直接丢弃，不做合并
type LogInput struct {
	HabitID        string
	Date           string
	Completed      bool
	Note           string
	MilestoneCount int
	ProgressValue  float64
}

// New 构造 Store 并异步发起初始加载
func New(adapter syncstore.Adapter, logger zerolog.Logger, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}

	s := &Store{
		adapter:    adapter,
		log:        logger,
		loc:        loc,
		habits:     make([]model.Habit, 0),
		logs:       make([]model.HabitLog, 0),
		ready:      make(chan struct{}),
		habitQueue: make(chan []model.Habit, 1),
		logQueue:   make(chan []model.HabitLog, 1),
		quit:       make(chan struct{}),
	}

	go s.load()
	go s.flushHabits()
	go s.flushLogs()
	return s
}

func (s *Store) load() {
	habits, err := s.adapter.GetHabits()
	if err != nil {
		s.log.Warn().Err(err).Msg("initial habit load failed, continuing with empty collection")
		habits = make([]model.Habit, 0)
	}

	logs, err := s.adapter.GetLogs()
	if err != nil {
		s.log.Warn().Err(err).Msg("initial log load failed, continuing with empty collection")
		logs = make([]model.HabitLog, 0)
	}

	habits, migrated := s.backfillStartDates(habits)

	s.mu.Lock()
	s.habits = habits
	s.logs = logs
	s.loaded = true
	s.mu.Unlock()

	// 一次性迁移：为缺失生效日的历史习惯批量回写
	if migrated {
		if err := s.adapter.SetHabits(habits); err != nil {
			s.log.Warn().Err(err).Msg("start date backfill persist failed")
		}
	}

	// 先完成订阅再放行调用方，保证后续本地写入不会丢失通知
	s.subscribe()
	close(s.ready)
}

// backfillStartDates 为缺失 StartDate 的习惯补上当年 1 月 1 日
func (s *Store) backfillStartDates(habits []model.Habit) ([]model.Habit, bool) {
	fallback := fmt.Sprintf("%04d-01-01", time.Now().In(s.loc).Year())

	migrated := false
	for i := range habits {
		if strings.TrimSpace(habits[i].StartDate) == "" {
			habits[i].StartDate = fallback
			migrated = true
		}
	}
	return habits, migrated
}

func (s *Store) subscribe() {
	unsubHabits, err := s.adapter.SubscribeHabits(func(habits []model.Habit) {
		s.mu.Lock()
		s.habits = habits
		s.mu.Unlock()
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("habit subscription unavailable")
	}

	unsubLogs, err := s.adapter.SubscribeLogs(func(logs []model.HabitLog) {
		s.mu.Lock()
		s.logs = logs
		s.mu.Unlock()
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("log subscription unavailable")
	}

	s.mu.Lock()
	if unsubHabits != nil {
		s.unsubs = append(s.unsubs, unsubHabits)
	}
	if unsubLogs != nil {
		s.unsubs = append(s.unsubs, unsubLogs)
	}
	s.mu.Unlock()
}

// Ready 在初始加载完成（无论成败）后关闭
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Loaded 报告初始加载是否已经结束
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Habits 返回按插入顺序排列的习惯快照副本
func (s *Store) Habits() []model.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Habit(nil), s.habits...)
}

// Logs 返回日志快照副本
func (s *Store) Logs() []model.HabitLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.HabitLog(nil), s.logs...)
}

// Snapshot 返回供查询引擎使用的一致性快照
// 一次逻辑读取只应取一次快照，保证输出的相互一致
func (s *Store) Snapshot() query.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.Snapshot{
		Habits: append([]model.Habit(nil), s.habits...),
		Logs:   append([]model.HabitLog(nil), s.logs...),
	}
}

// AddHabit 追加新习惯
// 必填字段缺失返回 ErrValidation；ID 与 CreatedAt 缺省时由存储分配
func (s *Store) AddHabit(habit model.Habit) (model.Habit, error) {
	if err := validateHabit(habit); err != nil {
		return model.Habit{}, err
	}

	if habit.ID == "" {
		habit.ID = uuid.NewString()
	}
	if habit.CreatedAt.IsZero() {
		habit.CreatedAt = time.Now().In(s.loc)
	}

	s.mu.Lock()
	s.habits = append(s.habits, habit)
	habits := append([]model.Habit(nil), s.habits...)
	s.mu.Unlock()

	s.persistHabits(habits)
	return habit, nil
}

// UpdateHabit 原地替换同 ID 的习惯，ID 与 CreatedAt 不可变
// 未找到时为 no-op
func (s *Store) UpdateHabit(habit model.Habit) error {
	if err := validateHabit(habit); err != nil {
		return err
	}

	s.mu.Lock()
	found := false
	for i := range s.habits {
		if s.habits[i].ID == habit.ID {
			habit.CreatedAt = s.habits[i].CreatedAt
			s.habits[i] = habit
			found = true
			break
		}
	}
	habits := append([]model.Habit(nil), s.habits...)
	s.mu.Unlock()

	if found {
		s.persistHabits(habits)
	}
	return nil
}

// DeleteHabit 删除习惯并级联删除其全部日志
// 对调用方而言两者是一次原子操作
func (s *Store) DeleteHabit(id string) {
	s.mu.Lock()
	habits := make([]model.Habit, 0, len(s.habits))
	habitRemoved := false
	for _, h := range s.habits {
		if h.ID == id {
			habitRemoved = true
			continue
		}
		habits = append(habits, h)
	}

	logs := make([]model.HabitLog, 0, len(s.logs))
	logsRemoved := false
	for _, l := range s.logs {
		if l.HabitID == id {
			logsRemoved = true
			continue
		}
		logs = append(logs, l)
	}

	s.habits = habits
	s.logs = logs
	habitsCopy := append([]model.Habit(nil), habits...)
	logsCopy := append([]model.HabitLog(nil), logs...)
	s.mu.Unlock()

	if habitRemoved {
		s.persistHabits(habitsCopy)
	}
	if logsRemoved {
		s.persistLogs(logsCopy)
	}
}

// LogHabit 以 (habitId, date) 为键做幂等打卡：
// 先删除旧记录再写入新记录，整条覆盖，最后一次写入获胜
func (s *Store) LogHabit(input LogInput) error {
	if strings.TrimSpace(input.HabitID) == "" || !query.ValidDate(input.Date) {
		return fmt.Errorf("%w: habit id and date are required", ErrValidation)
	}

	record := model.HabitLog{
		HabitID:        input.HabitID,
		Date:           input.Date,
		Completed:      input.Completed,
		Note:           strings.TrimSpace(input.Note),
		MilestoneCount: input.MilestoneCount,
		ProgressValue:  input.ProgressValue,
	}

	s.mu.Lock()
	logs := make([]model.HabitLog, 0, len(s.logs)+1)
	for _, l := range s.logs {
		if l.HabitID == input.HabitID && l.Date == input.Date {
			continue
		}
		logs = append(logs, l)
	}
	logs = append(logs, record)
	s.logs = logs
	logsCopy := append([]model.HabitLog(nil), logs...)
	s.mu.Unlock()

	s.persistLogs(logsCopy)
	return nil
}

// RemoveLog 撤销指定键的打卡，不存在时为 no-op
func (s *Store) RemoveLog(habitID, date string) {
	s.mu.Lock()
	logs := make([]model.HabitLog, 0, len(s.logs))
	removed := false
	for _, l := range s.logs {
		if l.HabitID == habitID && l.Date == date {
			removed = true
			continue
		}
		logs = append(logs, l)
	}
	s.logs = logs
	logsCopy := append([]model.HabitLog(nil), logs...)
	s.mu.Unlock()

	if removed {
		s.persistLogs(logsCopy)
	}
}

// SaveReflection 透传反思笔记到远端，内容原样存储
func (s *Store) SaveReflection(date string, content model.Reflection) error {
	if !query.ValidDate(date) {
		return fmt.Errorf("%w: reflection date is required", ErrValidation)
	}
	return s.adapter.SetReflection(date, content)
}

// Reflections 返回全部反思笔记
func (s *Store) Reflections() (map[string]model.Reflection, error) {
	return s.adapter.GetReflections()
}

// Close 退订远端变更并停止持久化队列
// 队列里尚未落盘的快照会在退出前冲刷一次
func (s *Store) Close() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}

	s.closeOnce.Do(func() { close(s.quit) })
}

// 远端持久化不阻塞命令调用方，失败只记日志；
// 每类集合由单个冲刷协程顺序写出，保证后写的整集合不会被先写的覆盖。
// 队列只保留最新快照，中间状态允许被合并掉。
func (s *Store) persistHabits(habits []model.Habit) {
	enqueueLatest(s.habitQueue, habits)
}

func (s *Store) persistLogs(logs []model.HabitLog) {
	enqueueLatest(s.logQueue, logs)
}

func enqueueLatest[T any](queue chan []T, value []T) {
	for {
		select {
		case queue <- value:
			return
		default:
			select {
			case <-queue:
			default:
			}
		}
	}
}

func (s *Store) flushHabits() {
	for {
		select {
		case habits := <-s.habitQueue:
			if err := s.adapter.SetHabits(habits); err != nil {
				s.log.Warn().Err(err).Msg("habit persist failed, local snapshot may drift")
			}
		case <-s.quit:
			select {
			case habits := <-s.habitQueue:
				if err := s.adapter.SetHabits(habits); err != nil {
					s.log.Warn().Err(err).Msg("habit persist failed, local snapshot may drift")
				}
			default:
			}
			return
		}
	}
}

func (s *Store) flushLogs() {
	for {
		select {
		case logs := <-s.logQueue:
			if err := s.adapter.SetLogs(logs); err != nil {
				s.log.Warn().Err(err).Msg("log persist failed, local snapshot may drift")
			}
		case <-s.quit:
			select {
			case logs := <-s.logQueue:
				if err := s.adapter.SetLogs(logs); err != nil {
					s.log.Warn().Err(err).Msg("log persist failed, local snapshot may drift")
				}
			default:
			}
			return
		}
	}
}

func validateHabit(habit model.Habit) error {
	required := map[string]string{
		"name":     habit.Name,
		"identity": habit.Identity,
		"trigger":  habit.Trigger.When,
		"time":     habit.Time,
		"cue":      habit.Cue,
	}

	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, field)
		}
	}
	return nil
}
