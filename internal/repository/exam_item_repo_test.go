package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/art-exam-api/internal/models"
)

func TestExamItemRepositoryListFiltersByCollegeAndKind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExamItemRepository(db)

	arts := seedCollege(t, db, "Fine Arts")
	other := seedCollege(t, db, "Applied Arts")
	seedItem(t, db, arts, models.ExamKindMCQ, "red")
	seedItem(t, db, arts, models.ExamKindMCQ, "blue")
	seedItem(t, db, arts, models.ExamKindHand, "")
	seedItem(t, db, other, models.ExamKindMCQ, "green")

	items, total, err := repo.List(context.Background(), ExamItemFilter{CollegeID: &arts.ID, Kind: models.ExamKindMCQ})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	for _, item := range items {
		require.Equal(t, arts.ID, item.CollegeID)
		require.Equal(t, models.ExamKindMCQ, item.Kind)
	}

	paged, total, err := repo.List(context.Background(), ExamItemFilter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
	require.Len(t, paged, 1)
}

func TestExamItemRepositoryDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExamItemRepository(db)
	arts := seedCollege(t, db, "Fine Arts")
	item := seedItem(t, db, arts, models.ExamKindPractice, "")

	deleted, err := repo.Delete(context.Background(), item.ID)
	require.NoError(t, err)
	require.Equal(t, item.ID, deleted.ID)

	_, err = repo.GetByID(context.Background(), item.ID)
	require.Error(t, err)
}
