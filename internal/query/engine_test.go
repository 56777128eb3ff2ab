package query

import (
	"math"
	"testing"

	"github.com/habitloop/internal/model"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Habits: []model.Habit{
			{
				ID:        "run",
				Name:      "晨跑",
				Identity:  "A Healthy Person",
				Time:      "07:00",
				Frequency: model.WeekdayFrequency(1, 3, 5),
				StartDate: "2024-01-01",
				Milestone: &model.Milestone{Target: 24, Unit: "books", Period: "year"},
			},
			{
				ID:        "read",
				Name:      "阅读",
				Identity:  "a reader",
				Time:      "21:30",
				Frequency: model.DailyFrequency(),
				StartDate: "2024-01-01",
			},
			{
				ID:        "idle",
				Name:      "空排期",
				Identity:  "a healthy person",
				Time:      "09:00",
				Frequency: model.WeekdayFrequency(),
				StartDate: "2024-01-01",
			},
		},
		Logs: []model.HabitLog{
			{HabitID: "run", Date: "2024-03-01", Completed: true, MilestoneCount: 1},
			{HabitID: "run", Date: "2024-03-02", Completed: true, MilestoneCount: 1},
			{HabitID: "run", Date: "2024-03-03", Completed: true, MilestoneCount: 1},
			{HabitID: "run", Date: "2024-03-04", Completed: false},
			{HabitID: "read", Date: "2024-03-03", Completed: true, ProgressValue: 10},
			{HabitID: "read", Date: "2024-03-04", Completed: true, ProgressValue: 12},
			{HabitID: "idle", Date: "2024-02-01", Completed: true},
		},
	}
}

func TestStatePartition(t *testing.T) {
	snap := testSnapshot()

	// 无日志 → pending；completed=true → done；completed=false → missed
	if got := snap.State("run", "2024-03-10"); got != model.StatePending {
		t.Fatalf("expected pending, got %s", got)
	}
	if got := snap.State("run", "2024-03-01"); got != model.StateDone {
		t.Fatalf("expected done, got %s", got)
	}
	if got := snap.State("run", "2024-03-04"); got != model.StateMissed {
		t.Fatalf("expected missed, got %s", got)
	}

	// 不存在的习惯同样回落到 pending
	if got := snap.State("ghost", "2024-03-01"); got != model.StatePending {
		t.Fatalf("expected pending for unknown habit, got %s", got)
	}
}

func TestIsScheduledOn(t *testing.T) {
	snap := testSnapshot()
	habit, _ := snap.FindHabit("run")

	// 2024-01-07 是周日，不在 [1,3,5] 排期内
	if IsScheduledOn(habit, "2024-01-07") {
		t.Fatal("sunday should not be scheduled")
	}
	// 2024-01-08 是周一
	if !IsScheduledOn(habit, "2024-01-08") {
		t.Fatal("monday should be scheduled")
	}
	// 2023-12-04 虽是周一但早于生效日
	if IsScheduledOn(habit, "2023-12-04") {
		t.Fatal("dates before start date should not be scheduled")
	}

	daily, _ := snap.FindHabit("read")
	if !IsScheduledOn(daily, "2024-06-15") {
		t.Fatal("daily habit should be scheduled on any date after start")
	}

	empty, _ := snap.FindHabit("idle")
	if IsScheduledOn(empty, "2024-06-15") {
		t.Fatal("empty frequency should never be scheduled")
	}
}

func TestWeeklyConsistency(t *testing.T) {
	snap := testSnapshot()

	metrics := snap.WeeklyConsistency("run", "2024-03-04")
	if metrics.TotalDays != 7 {
		t.Fatalf("total days must always be 7, got %d", metrics.TotalDays)
	}
	if metrics.CompletedDays != 3 {
		t.Fatalf("expected 3 completed days, got %d", metrics.CompletedDays)
	}

	// 无任何日志的习惯
	metrics = snap.WeeklyConsistency("ghost", "2024-03-04")
	if metrics.TotalDays != 7 || metrics.CompletedDays != 0 {
		t.Fatalf("unexpected metrics for unknown habit: %+v", metrics)
	}
}

func TestMonthlyConsistencyUsesFixedDenominator(t *testing.T) {
	snap := testSnapshot()

	// run 有 3 条完成日志，3/30 = 10%
	if got := snap.MonthlyConsistency("run"); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := snap.ActiveDays("run"); got != 3 {
		t.Fatalf("expected 3 active days, got %d", got)
	}

	monthly := snap.Monthly("run")
	if monthly.Trend != "stable" {
		t.Fatalf("expected stable trend, got %s", monthly.Trend)
	}
}

func TestQuarterlyAndYearly(t *testing.T) {
	snap := testSnapshot()

	quarterly := snap.Quarterly()
	if quarterly.HabitsMaintained != 3 {
		t.Fatalf("expected 3 habits maintained, got %d", quarterly.HabitsMaintained)
	}
	// run=10%，read=7%，idle=3% → 平均 7%
	if quarterly.AverageConsistency != 7 {
		t.Fatalf("expected average 7, got %d", quarterly.AverageConsistency)
	}

	yearly := snap.Yearly()
	if yearly.TotalDaysShowedUp != 6 {
		t.Fatalf("expected 6 total completed logs, got %d", yearly.TotalDaysShowedUp)
	}
	if yearly.StrongestHabit != "晨跑" {
		t.Fatalf("expected strongest habit 晨跑, got %s", yearly.StrongestHabit)
	}
}

func TestQuarterlyEmptySnapshot(t *testing.T) {
	snap := Snapshot{}
	quarterly := snap.Quarterly()
	if quarterly.HabitsMaintained != 0 || quarterly.AverageConsistency != 0 {
		t.Fatalf("unexpected quarterly metrics for empty snapshot: %+v", quarterly)
	}
}

func TestCumulativeProgress(t *testing.T) {
	snap := testSnapshot()

	if got := snap.CumulativeProgress("read"); got != 22 {
		t.Fatalf("expected cumulative 22, got %v", got)
	}
	if got := snap.CumulativeProgress("run"); got != 0 {
		t.Fatalf("expected cumulative 0, got %v", got)
	}
}

func TestMilestoneProgress(t *testing.T) {
	snap := testSnapshot()

	// 三条完成日志各计 1，目标 24 → 12.5%
	progress, err := snap.MilestoneProgress("run")
	if err != nil {
		t.Fatalf("MilestoneProgress returned error: %v", err)
	}
	if progress.Count != 3 {
		t.Fatalf("expected count 3, got %d", progress.Count)
	}
	if math.Abs(progress.Percentage-12.5) > 1e-9 {
		t.Fatalf("expected percentage 12.5, got %v", progress.Percentage)
	}

	if _, err := snap.MilestoneProgress("ghost"); err == nil {
		t.Fatal("expected ErrHabitNotFound for unknown habit")
	}
}

func TestMilestonePercentageCapsAtHundred(t *testing.T) {
	snap := Snapshot{
		Habits: []model.Habit{{
			ID:        "h",
			Milestone: &model.Milestone{Target: 2, Unit: "books", Period: "month"},
		}},
		Logs: []model.HabitLog{
			{HabitID: "h", Date: "2024-03-01", Completed: true, MilestoneCount: 3},
		},
	}

	progress, err := snap.MilestoneProgress("h")
	if err != nil {
		t.Fatalf("MilestoneProgress returned error: %v", err)
	}
	if progress.Percentage != 100 {
		t.Fatalf("expected capped percentage 100, got %v", progress.Percentage)
	}
}

func TestCurrentStreak(t *testing.T) {
	snap := testSnapshot()

	// 3/1..3/3 连续完成，3/4 为 missed
	if got := snap.CurrentStreak("run", "2024-03-03", 30); got != 3 {
		t.Fatalf("expected streak 3, got %d", got)
	}
	if got := snap.CurrentStreak("run", "2024-03-04", 30); got != 0 {
		t.Fatalf("expected streak 0 when as-of day missed, got %d", got)
	}
	// 回溯上限截断
	if got := snap.CurrentStreak("run", "2024-03-03", 2); got != 2 {
		t.Fatalf("expected streak capped at 2, got %d", got)
	}
}

func TestIdentityRollupsCaseInsensitive(t *testing.T) {
	snap := testSnapshot()

	rollups := snap.IdentityRollups()
	if len(rollups) != 2 {
		t.Fatalf("expected 2 identities, got %d", len(rollups))
	}

	healthy := rollups[0]
	if healthy.Name != "a healthy person" {
		t.Fatalf("expected lowercased identity first, got %s", healthy.Name)
	}
	if healthy.HabitCount != 2 {
		t.Fatalf("expected 2 habits in group, got %d", healthy.HabitCount)
	}
	// run 3 次完成 + idle 1 次完成
	if healthy.ActionsThisMonth != 4 || healthy.ActionsThisYear != 4 {
		t.Fatalf("unexpected action counts: %+v", healthy)
	}
}

func TestDueAndCompletedSelection(t *testing.T) {
	snap := testSnapshot()

	// 2024-03-04 是周一：run 排期但当日 missed → 仍在待办；read 当日已完成
	due := snap.DueOn("2024-03-04")
	if len(due) != 1 || due[0].ID != "run" {
		t.Fatalf("unexpected due list: %+v", due)
	}

	completed := snap.CompletedOn("2024-03-04")
	if len(completed) != 1 || completed[0].ID != "read" {
		t.Fatalf("unexpected completed list: %+v", completed)
	}

	// 2024-03-05 是周二：只有 read 排期
	due = snap.DueOn("2024-03-05")
	if len(due) != 1 || due[0].ID != "read" {
		t.Fatalf("unexpected due list for tuesday: %+v", due)
	}
}

func TestDueSortedByTime(t *testing.T) {
	snap := Snapshot{
		Habits: []model.Habit{
			{ID: "late", Time: "21:00", Frequency: model.DailyFrequency()},
			{ID: "early", Time: "06:30", Frequency: model.DailyFrequency()},
			{ID: "noon", Time: "12:00", Frequency: model.DailyFrequency()},
		},
	}

	due := snap.DueOn("2024-03-04")
	if len(due) != 3 {
		t.Fatalf("expected 3 due habits, got %d", len(due))
	}
	if due[0].ID != "early" || due[1].ID != "noon" || due[2].ID != "late" {
		t.Fatalf("expected time ordering, got %s %s %s", due[0].ID, due[1].ID, due[2].ID)
	}
}

func TestReportTotals(t *testing.T) {
	snap := testSnapshot()

	if got := snap.DayTotal("2024-03-03"); got != 2 {
		t.Fatalf("expected 2 habits done on 2024-03-03, got %d", got)
	}
	if got := snap.GrandTotal(); got != 6 {
		t.Fatalf("expected grand total 6, got %d", got)
	}

	ordered := snap.HabitsByTime()
	if ordered[0].ID != "run" || ordered[1].ID != "idle" || ordered[2].ID != "read" {
		t.Fatalf("unexpected habit ordering: %s %s %s", ordered[0].ID, ordered[1].ID, ordered[2].ID)
	}
}

func TestLast7Days(t *testing.T) {
	snap := testSnapshot()

	marks := snap.Last7Days("run", "2024-03-04")
	if len(marks) != 7 {
		t.Fatalf("expected 7 marks, got %d", len(marks))
	}
	if marks[0].Date != "2024-02-27" || marks[6].Date != "2024-03-04" {
		t.Fatalf("unexpected date window: %s .. %s", marks[0].Date, marks[6].Date)
	}
	if !marks[3].Completed || marks[6].Completed {
		t.Fatalf("unexpected completion marks: %+v", marks)
	}
}
