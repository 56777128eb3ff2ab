package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/habitloop/internal/model"
)

// SeedDefaults 为空账号写入一组示例习惯，方便首次体验
// 已有任何习惯时不做任何事
func (s *Store) SeedDefaults() {
	s.mu.Lock()
	if len(s.habits) > 0 {
		s.mu.Unlock()
		return
	}

	now := time.Now().In(s.loc)
	samples := sampleHabits(now)
	s.habits = append(s.habits, samples...)
	habits := append([]model.Habit(nil), s.habits...)
	s.mu.Unlock()

	s.persistHabits(habits)
}

func sampleHabits(createdAt time.Time) []model.Habit {
	water := model.Habit{
		ID:         uuid.NewString(),
		Name:       "Drink a glass of water",
		Identity:   "a healthy person",
		Trigger:    model.Trigger{When: "After I wake up", Where: "In the kitchen"},
		Time:       "07:00",
		Cue:        "Water bottle on counter",
		Reward:     "Refreshed and energized",
		Frequency:  model.DailyFrequency(),
		Color:      "#10b981",
		CreatedAt:  createdAt,
		Difficulty: model.DifficultyTiny,
	}

	read := model.Habit{
		ID:         uuid.NewString(),
		Name:       "Read 10 pages",
		Identity:   "a reader",
		Trigger:    model.Trigger{When: "Before bed", Where: "In my bedroom"},
		Time:       "21:30",
		Cue:        "Book on nightstand",
		Reward:     "Calm and inspired",
		Frequency:  model.DailyFrequency(),
		Color:      "#6366f1",
		CreatedAt:  createdAt,
		Difficulty: model.DifficultyEasy,
		Milestone:  &model.Milestone{Target: 24, Unit: "books", Period: "year"},
		Contract: &model.Contract{
			Commitment:            "I will read 10 pages every night at 9:30 PM",
			Consequence:           "Break the chain",
			AccountabilityPartner: "My reading buddy",
		},
	}

	journal := model.Habit{
		ID:           uuid.NewString(),
		Name:         "Write 3 sentences in journal",
		Identity:     "a reflective person",
		Trigger:      model.Trigger{When: "After I drink water", Where: "At my desk"},
		Time:         "07:15",
		Cue:          "Journal next to coffee mug",
		Reward:       "Clear and focused",
		Frequency:    model.DailyFrequency(),
		Color:        "#f59e0b",
		CreatedAt:    createdAt,
		Difficulty:   model.DifficultyTiny,
		StackedAfter: water.ID,
	}

	walk := model.Habit{
		ID:         uuid.NewString(),
		Name:       "Walk for 10 minutes",
		Identity:   "an active person",
		Trigger:    model.Trigger{When: "After lunch", Where: "Around the block"},
		Time:       "13:00",
		Cue:        "Walking shoes by front door",
		Reward:     "Energized and refreshed",
		Frequency:  model.DailyFrequency(),
		Color:      "#ec4899",
		CreatedAt:  createdAt,
		Difficulty: model.DifficultyEasy,
	}

	return []model.Habit{water, read, journal, walk}
}
