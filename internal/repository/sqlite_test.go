package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hray3182/catcare/internal/database"
	"github.com/hray3182/catcare/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "catcare.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	s := NewSQLiteStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

func sample(id string, offset time.Duration) *models.Reminder {
	return &models.Reminder{
		ID:                  id,
		OwnerID:             7,
		CatID:               "cat-1",
		Title:               "Breakfast",
		Type:                models.TypeFeeding,
		Frequency:           models.FrequencyDaily,
		ScheduledTime:       base.Add(offset),
		IsActive:            true,
		NotificationEnabled: true,
		CreatedAt:           base,
		UpdatedAt:           base,
	}
}

func TestSQLiteReminderRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	want := sample("r1", 0)
	want.Description = "Half a can"
	want.ScheduledTime = time.Date(2024, time.January, 1, 9, 30, 0, 0, time.FixedZone("UTC+8", 8*3600))
	if err := s.CreateReminder(ctx, want); err != nil {
		t.Fatalf("CreateReminder error: %v", err)
	}

	got, err := s.GetReminder(ctx, "r1")
	if err != nil {
		t.Fatalf("GetReminder error: %v", err)
	}
	if !got.ScheduledTime.Equal(want.ScheduledTime) {
		t.Fatalf("ScheduledTime = %s, want %s", got.ScheduledTime, want.ScheduledTime)
	}
	if got.Title != want.Title || got.Description != want.Description || got.Type != want.Type ||
		got.Frequency != want.Frequency || !got.IsActive || got.IsCompleted || !got.NotificationEnabled {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSQLiteAppendAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.CreateReminder(ctx, sample("r1", 0)); err != nil {
		t.Fatal(err)
	}
	batch := []*models.Reminder{sample("r3", 48*time.Hour), sample("r2", 24*time.Hour)}
	if err := s.AppendReminders(ctx, batch); err != nil {
		t.Fatalf("AppendReminders error: %v", err)
	}

	all, err := s.ListReminders(ctx)
	if err != nil {
		t.Fatalf("ListReminders error: %v", err)
	}
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	if len(ids) != 3 || ids[0] != "r1" || ids[1] != "r2" || ids[2] != "r3" {
		t.Fatalf("ListReminders order = %v", ids)
	}

	other := sample("r4", 0)
	other.OwnerID = 8
	if err := s.CreateReminder(ctx, other); err != nil {
		t.Fatal(err)
	}
	mine, err := s.RemindersByOwner(ctx, 7)
	if err != nil {
		t.Fatalf("RemindersByOwner error: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("RemindersByOwner = %d reminders, want 3", len(mine))
	}
}

func TestSQLiteAppendIsAtomic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.CreateReminder(ctx, sample("dup", 0)); err != nil {
		t.Fatal(err)
	}
	err := s.AppendReminders(ctx, []*models.Reminder{sample("fresh", time.Hour), sample("dup", 2*time.Hour)})
	if err == nil {
		t.Fatal("AppendReminders accepted a duplicate id")
	}
	if _, err := s.GetReminder(ctx, "fresh"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("partial batch persisted: %v", err)
	}
}

func TestSQLiteUpdateAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	r := sample("r1", 0)
	if err := s.CreateReminder(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.IsCompleted = true
	r.UpdatedAt = base.Add(time.Minute)
	if err := s.UpdateReminder(ctx, r); err != nil {
		t.Fatalf("UpdateReminder error: %v", err)
	}
	got, err := s.GetReminder(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsCompleted || !got.UpdatedAt.Equal(r.UpdatedAt) {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := s.DeleteReminder(ctx, "r1"); err != nil {
		t.Fatalf("DeleteReminder error: %v", err)
	}
	if err := s.DeleteReminder(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second DeleteReminder = %v, want ErrNotFound", err)
	}
	if err := s.UpdateReminder(ctx, r); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateReminder on missing row = %v, want ErrNotFound", err)
	}
}

func TestSQLiteUpdateRemindersIsAtomic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	a, b := sample("a", 0), sample("b", 24*time.Hour)
	if err := s.AppendReminders(ctx, []*models.Reminder{a, b}); err != nil {
		t.Fatal(err)
	}

	a.IsActive, b.IsActive = false, false
	ghost := sample("ghost", 48*time.Hour)
	if err := s.UpdateReminders(ctx, []*models.Reminder{a, b, ghost}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateReminders with a missing id = %v", err)
	}
	if got, _ := s.GetReminder(ctx, "a"); !got.IsActive {
		t.Fatal("failed batch must not change earlier rows")
	}

	if err := s.UpdateReminders(ctx, []*models.Reminder{a, b}); err != nil {
		t.Fatalf("UpdateReminders error: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if got, _ := s.GetReminder(ctx, id); got.IsActive {
			t.Fatalf("reminder %s still active", id)
		}
	}
}

func TestSQLiteCats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	cat := &models.Cat{
		ID: "c1", OwnerID: 7, Name: "Mochi", Breed: "Ragdoll", Age: 3, WeightKg: 4.2,
		Vet:       models.VetInfo{Name: "Dr. Lin", Phone: "555-0100"},
		CreatedAt: base, UpdatedAt: base,
	}
	if err := s.CreateCat(ctx, cat); err != nil {
		t.Fatalf("CreateCat error: %v", err)
	}
	if err := s.CreateCat(ctx, &models.Cat{ID: "c2", OwnerID: 7, Name: "Azuki", CreatedAt: base, UpdatedAt: base}); err != nil {
		t.Fatal(err)
	}

	cats, err := s.CatsByOwner(ctx, 7)
	if err != nil {
		t.Fatalf("CatsByOwner error: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Azuki" || cats[1].Vet.Name != "Dr. Lin" || cats[1].WeightKg != 4.2 {
		t.Fatalf("unexpected cats: %+v", cats)
	}

	cat.Age = 4
	if err := s.UpdateCat(ctx, cat); err != nil {
		t.Fatalf("UpdateCat error: %v", err)
	}
	got, err := s.GetCat(ctx, "c1")
	if err != nil || got.Age != 4 {
		t.Fatalf("GetCat = %+v, %v", got, err)
	}
	if err := s.DeleteCat(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCat error: %v", err)
	}
	if _, err := s.GetCat(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetCat after delete = %v", err)
	}
}
