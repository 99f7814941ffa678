package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/models"
)

func TestNotificationRepositoryReadState(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	college := seedCollege(t, db, "Fine Arts")
	mona := seedStudent(t, db, "mona", college, 100)
	omar := seedStudent(t, db, "omar", college, 101)

	approved := models.Notification{UserID: mona.user.ID, Type: models.NotificationProfileApproved, Message: "Your profile was approved."}
	reached := models.Notification{UserID: mona.user.ID, Type: models.NotificationLevelReached, Message: "You reached the required level."}
	other := models.Notification{UserID: omar.user.ID, Type: models.NotificationProfileRejected, Message: "Your profile was rejected."}
	for _, n := range []*models.Notification{&approved, &reached, &other} {
		require.NoError(t, repo.Create(ctx, n))
	}

	items, total, err := repo.List(ctx, NotificationFilter{UserID: mona.user.ID, PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, reached.ID, items[0].ID)

	_, err = repo.MarkRead(ctx, other.ID, mona.user.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	read, err := repo.MarkRead(ctx, approved.ID, mona.user.ID)
	require.NoError(t, err)
	require.True(t, read.Read)

	unread, err := repo.CountUnread(ctx, mona.user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, unread)

	items, total, err = repo.List(ctx, NotificationFilter{UserID: mona.user.ID, UnreadOnly: true})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, reached.ID, items[0].ID)

	updated, err := repo.MarkAllRead(ctx, mona.user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, updated)

	unread, err = repo.CountUnread(ctx, omar.user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, unread)
}
