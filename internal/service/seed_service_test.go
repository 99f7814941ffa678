package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
)

func newTestSeedService(enabled bool) (SeedService, *collegeRepoStub, *examItemRepoStub) {
	colleges := newCollegeRepoStub(models.College{ID: 1, Name: "Fine Arts"})
	items := newExamItemRepoStub()
	catalog := NewExamCatalogService(items, newStudentRepoStub(), colleges, nil, time.Minute, testValidator(), nil, testLogger())
	return NewSeedService(colleges, catalog, testValidator(), enabled, "secret", testLogger()), colleges, items
}

func TestSeedServiceTokenGuard(t *testing.T) {
	svc, _, _ := newTestSeedService(true)
	payload := dto.SeedCatalogRequest{Colleges: []dto.SeedCollege{{Name: "Applied Arts"}}}

	_, err := svc.SeedCatalog(context.Background(), "wrong", payload)
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	disabled, _, _ := newTestSeedService(false)
	_, err = disabled.SeedCatalog(context.Background(), "secret", payload)
	require.ErrorIs(t, err, ErrSeedDisabled)
}

func TestSeedServiceReusesCollegesByName(t *testing.T) {
	svc, colleges, items := newTestSeedService(true)

	resp, err := svc.SeedCatalog(context.Background(), "secret", dto.SeedCatalogRequest{Colleges: []dto.SeedCollege{
		{Name: "fine arts", Items: []dto.ExamItemCreateRequest{
			{Kind: "mcq", Question: "Warm colour?", Option1: "red", Option2: "blue", Option3: "green", CorrectAnswer: "red"},
		}},
		{Name: "Applied Arts", Items: []dto.ExamItemCreateRequest{
			{Kind: "hand", Question: "Draw a chair"},
			{Kind: "practice", Question: "Sketch the room", CollegeID: 99},
		}},
	}})
	require.NoError(t, err)
	require.Equal(t, 1, resp.CollegesCreated)
	require.Equal(t, 3, resp.ItemsCreated)
	require.Len(t, colleges.colleges, 2)

	for _, item := range items.items {
		if item.Kind == models.ExamKindMCQ {
			require.Equal(t, uint(1), item.CollegeID)
			continue
		}
		require.Equal(t, uint(2), item.CollegeID)
	}
}

func TestSeedServiceStopsOnInvalidItem(t *testing.T) {
	svc, _, items := newTestSeedService(true)

	_, err := svc.SeedCatalog(context.Background(), "secret", dto.SeedCatalogRequest{Colleges: []dto.SeedCollege{
		{Name: "Fine Arts", Items: []dto.ExamItemCreateRequest{
			{Kind: "mcq", Question: "Q?", Option1: "a", Option2: "b", Option3: "c", CorrectAnswer: "d"},
		}},
	}})
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Contains(t, fieldErrs, "correct_answer")
	require.Empty(t, items.items)
}
