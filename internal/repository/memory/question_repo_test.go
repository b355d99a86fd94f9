package memory

import (
	"context"
	"testing"

	"quizroom/internal/model"
)

func TestQuestionUpdateKeepsUsageCount(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepo()
	q := &model.Question{Title: "Capital", Options: []string{"A", "B"}, CreatorID: "u1"}
	if err := repo.Create(ctx, q); err != nil {
		t.Fatalf("create: %v", err)
	}

	stale, _ := repo.GetByID(ctx, q.ID)
	if err := repo.IncrementUsage(ctx, q.ID); err != nil {
		t.Fatalf("increment usage: %v", err)
	}
	stale.Title = "Renamed"
	stale.CreatorID = "u9"
	updated, err := repo.Update(ctx, stale)
	if err != nil || updated == nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Renamed" || updated.UsageCount != 1 || updated.CreatorID != "u1" {
		t.Fatalf("expected only editable fields to change, got %+v", updated)
	}

	if missing, _ := repo.Update(ctx, &model.Question{ID: "nope"}); missing != nil {
		t.Fatalf("expected nil for a missing question")
	}
}
