package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/art-exam-api/internal/models"
)

func TestAdminStudentRepositoryListFiltersAndSorts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAdminStudentRepository(db)

	arts := seedCollege(t, db, "Fine Arts")
	design := seedCollege(t, db, "Applied Arts")
	alice := seedStudent(t, db, "alice", arts, 20)
	seedStudent(t, db, "bob", design, 10)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", alice.user.ID).Update("status", models.UserStatusStudentReview).Error)

	students, total, err := repo.List(context.Background(), AdminStudentFilter{Search: "alice", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, students, 1)
	require.Equal(t, "Student alice", students[0].FullName)
	require.Equal(t, "Fine Arts", students[0].College.Name)

	students, total, err = repo.List(context.Background(), AdminStudentFilter{Sort: "seat_number", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, 10, students[0].SeatNumber)

	students, total, err = repo.List(context.Background(), AdminStudentFilter{CollegeID: &design.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Student bob", students[0].FullName)

	students, total, err = repo.List(context.Background(), AdminStudentFilter{Status: models.UserStatusStudentReview})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, alice.student.ID, students[0].ID)
}

func TestAdminStudentRepositoryListWithResults(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAdminStudentRepository(db)

	arts := seedCollege(t, db, "Fine Arts")
	fx := seedStudent(t, db, "a", arts, 3)
	require.NoError(t, db.Create(&models.StudentResults{StudentID: fx.student.ID, MCQResult: 12, HandDrawingResult: 150}).Error)

	students, err := repo.ListWithResults(context.Background(), &arts.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, 162, students[0].Results.Total())
}
