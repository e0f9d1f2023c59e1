package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/arnavshah/allocation-api-go/pkg/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMemberRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewPlanStore(testDB(t))

	prof := models.MemberProfile{
		MemberID:        "alice",
		Name:            "Alice",
		MaxHoursPerDay:  8,
		MaxHoursPerWeek: 40,
		UnavailableDays: []models.Weekday{models.Friday},
		Skills:          []string{"Go", "SQL"},
	}
	if _, err := store.UpsertMember(ctx, prof); err != nil {
		t.Fatalf("UpsertMember: %v", err)
	}
	prof.MaxHoursPerWeek = 32
	if _, err := store.UpsertMember(ctx, prof); err != nil {
		t.Fatalf("UpsertMember (update): %v", err)
	}

	got, err := store.Profiles(ctx, []models.MemberID{"alice", "nobody"})
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one profile, got %d", len(got))
	}
	a := got["alice"]
	if a.MaxHoursPerWeek != 32 {
		t.Errorf("MaxHoursPerWeek: want=32 got=%v", a.MaxHoursPerWeek)
	}
	if len(a.UnavailableDays) != 1 || a.UnavailableDays[0] != models.Friday {
		t.Errorf("UnavailableDays: got=%v", a.UnavailableDays)
	}
	if len(a.Skills) != 2 {
		t.Errorf("Skills: got=%v", a.Skills)
	}

	deleted, err := store.DeleteMember(ctx, "alice")
	if err != nil || !deleted {
		t.Fatalf("DeleteMember: deleted=%v err=%v", deleted, err)
	}
	deleted, err = store.DeleteMember(ctx, "alice")
	if err != nil || deleted {
		t.Fatalf("DeleteMember twice: deleted=%v err=%v", deleted, err)
	}
}

func TestWeekAssignments(t *testing.T) {
	ctx := context.Background()
	store := NewPlanStore(testDB(t))

	week := []models.Assignment{
		{TaskID: "t1", MemberID: "alice", Day: models.Monday, Hours: 4, RequiredSkills: []string{"Go"}},
		{TaskID: "t2", MemberID: "bob", Day: models.Tuesday, Hours: 6},
	}
	always := func([]models.Assignment, map[models.MemberID]models.MemberProfile) (bool, error) { return true, nil }
	if ok, err := store.CommitWeek(ctx, "2026-10-19", week, always); err != nil || !ok {
		t.Fatalf("CommitWeek: ok=%v err=%v", ok, err)
	}
	rows, err := store.WeekRows(ctx, "2026-10-19")
	if err != nil {
		t.Fatalf("WeekRows: %v", err)
	}
	if len(rows) != 2 || rows[0].ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected two rows with generated ids, got %+v", rows)
	}
	if _, err := store.CommitWeek(ctx, "2026-10-26", week[:1], always); err != nil {
		t.Fatalf("CommitWeek (next week): %v", err)
	}

	got, err := store.WeekAssignments(ctx, "2026-10-19")
	if err != nil {
		t.Fatalf("WeekAssignments: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(got))
	}
	total := 0.0
	for _, a := range got {
		total += a.Hours
		if a.TaskID == "t1" && (len(a.RequiredSkills) != 1 || a.RequiredSkills[0] != "Go") {
			t.Errorf("required skills lost: %+v", a)
		}
	}
	if total != 10 {
		t.Errorf("total hours: want=10 got=%v", total)
	}
}

func TestRecordUsage(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	for i := 1; i <= 3; i++ {
		n, err := CountRequest(ctx, db, 7)
		if err != nil {
			t.Fatalf("CountRequest: %v", err)
		}
		if n != i {
			t.Fatalf("CountRequest: want=%d got=%d", i, n)
		}
		if err := RecordUsage(ctx, db, 7, UsageDelta{Assignments: 5, Members: 2, Conflicts: 1}); err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
	}
	// Totals alone never count as a request.
	if err := RecordUsage(ctx, db, 9, UsageDelta{Assignments: 1}); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	if n, _ := RequestsToday(ctx, db, 9); n != 0 {
		t.Fatalf("RecordUsage must not count requests, got %d", n)
	}

	n, err := RequestsToday(ctx, db, 7)
	if err != nil {
		t.Fatalf("RequestsToday: %v", err)
	}
	if n != 3 {
		t.Fatalf("RequestsToday: want=3 got=%d", n)
	}

	usage, err := RecentUsage(ctx, db, 7)
	if err != nil {
		t.Fatalf("RecentUsage: %v", err)
	}
	if len(usage) != 1 || usage[0].TotalAssignments != 15 || usage[0].TotalConflicts != 3 {
		t.Fatalf("unexpected usage %+v", usage)
	}

	if n, _ := RequestsToday(ctx, db, 8); n != 0 {
		t.Fatalf("unknown key: want=0 got=%d", n)
	}
}

func TestCommitWeek(t *testing.T) {
	ctx := context.Background()
	store := NewPlanStore(testDB(t))
	week := "2026-10-19"
	proposed := []models.Assignment{{TaskID: "t", MemberID: "m", Day: models.Monday, Hours: 4}}

	var seen int
	decide := func(existing []models.Assignment, profiles map[models.MemberID]models.MemberProfile) (bool, error) {
		seen = len(existing)
		return len(existing) == 0, nil
	}

	ok, err := store.CommitWeek(ctx, week, proposed, decide)
	if err != nil || !ok {
		t.Fatalf("first commit: ok=%v err=%v", ok, err)
	}
	ok, err = store.CommitWeek(ctx, week, proposed, decide)
	if err != nil || ok {
		t.Fatalf("second commit must be declined: ok=%v err=%v", ok, err)
	}
	if seen != 1 {
		t.Fatalf("decide saw %d stored assignments, want 1", seen)
	}

	boom := errors.New("boom")
	if _, err := store.CommitWeek(ctx, week, proposed, func([]models.Assignment, map[models.MemberID]models.MemberProfile) (bool, error) {
		return true, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("decide error must be returned, got %v", err)
	}

	rows, err := store.WeekRows(ctx, week)
	if err != nil {
		t.Fatalf("WeekRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("only the first commit may persist, have %d rows", len(rows))
	}
}
