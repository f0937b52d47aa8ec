package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-summary-system/internal/models"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
)

func TestUserService(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.records, quietLogger())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "  Alan ", "Turing ")
	require.NoError(t, err)
	assert.Equal(t, "Alan", user.FirstName)
	assert.Equal(t, "Turing", user.LastName)

	_, err = svc.CreateUser(ctx, "Alan", "Turing")
	assert.ErrorIs(t, err, models.ErrUserExists)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))
	_, err = svc.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestUserServiceRecords(t *testing.T) {
	f := newFixture(t)
	users := NewUserService(f.users, f.records, quietLogger())
	summaries := f.service()
	ctx := context.Background()

	first, err := summaries.SummarizeFile(ctx, f.user.ID, textFile("a.txt", "First document."), summary.Short)
	require.NoError(t, err)
	_, err = summaries.SummarizeFile(ctx, f.user.ID, textFile("b.txt", "Second document."), summary.Short)
	require.NoError(t, err)

	records, err := users.ListRecords(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b.txt", records[0].MediaName)

	record, err := users.GetRecord(ctx, f.user.ID, first.RecordID)
	require.NoError(t, err)
	assert.Equal(t, first.Summary, record.Summary)
	assert.Equal(t, models.MediaFile, record.MediaType)

	require.NoError(t, users.DeleteRecord(ctx, f.user.ID, first.RecordID))
	_, err = users.GetRecord(ctx, f.user.ID, first.RecordID)
	assert.ErrorIs(t, err, models.ErrRecordNotFound)

	n, err := users.DeleteRecords(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = users.ListRecords(ctx, "no-such-user")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}
