package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/database"
	"github.com/noah-isme/art-exam-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	college models.College
	user    models.User
	student models.Student
}

func seedStudent(t *testing.T, db *gorm.DB, suffix string, college models.College, seat int) fixture {
	t.Helper()

	user := models.User{Email: "student" + suffix + "@example.com", PasswordHash: "hash", Role: models.UserRoleUser, Status: models.UserStatusStudent}
	require.NoError(t, db.Create(&user).Error)

	student := models.Student{
		UserID:      user.ID,
		FullName:    "Student " + suffix,
		NationalID:  fmt.Sprintf("%014d", seat),
		SeatNumber:  seat,
		Division:    models.DivisionScience,
		PhoneNumber: fmt.Sprintf("010%08d", seat),
		CollegeID:   college.ID,
	}
	require.NoError(t, db.Omit("Results", "Answers", "User", "College").Create(&student).Error)

	return fixture{college: college, user: user, student: student}
}

func seedCollege(t *testing.T, db *gorm.DB, name string) models.College {
	t.Helper()
	college := models.College{Name: name}
	require.NoError(t, db.Create(&college).Error)
	return college
}

func seedItem(t *testing.T, db *gorm.DB, college models.College, kind models.ExamKind, correct string) models.ExamItem {
	t.Helper()
	item := models.ExamItem{
		Kind:          kind,
		Question:      "Question " + string(kind),
		Option1:       "red",
		Option2:       "green",
		Option3:       "blue",
		CorrectAnswer: correct,
		CollegeID:     college.ID,
	}
	require.NoError(t, db.Omit("College").Create(&item).Error)
	return item
}
