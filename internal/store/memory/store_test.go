package memory

import (
	"context"
	"testing"
	"time"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplaints_CreateGetIsolated(t *testing.T) {
	cs := NewStore().Complaints()
	ctx := context.Background()

	c := &models.Complaint{CitizenID: 1, Title: "t", Status: models.StatusSubmitted, ImagePaths: []string{"a.jpg"}}
	require.NoError(t, cs.Create(ctx, c))
	assert.Equal(t, int64(1), c.ID)

	got, err := cs.Get(ctx, c.ID)
	require.NoError(t, err)
	got.ImagePaths[0] = "changed.jpg"

	again, err := cs.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", again.ImagePaths[0])

	_, err = cs.Get(ctx, 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestComplaints_ApplyTransitionChecksStatus(t *testing.T) {
	cs := NewStore().Complaints()
	ctx := context.Background()
	c := &models.Complaint{CitizenID: 1, Status: models.StatusSubmitted}
	require.NoError(t, cs.Create(ctx, c))

	dept := "Roads"
	now := time.Now()
	updated, err := cs.ApplyTransition(ctx, c.ID, models.StatusSubmitted, models.Transition{To: models.StatusAssigned, Department: &dept, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, updated.Status)

	_, err = cs.ApplyTransition(ctx, c.ID, models.StatusSubmitted, models.Transition{To: models.StatusAssigned, UpdatedAt: now})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = cs.ApplyTransition(ctx, 42, models.StatusSubmitted, models.Transition{To: models.StatusAssigned})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestComplaints_ListFilters(t *testing.T) {
	cs := NewStore().Complaints()
	ctx := context.Background()
	roads := "Roads"

	require.NoError(t, cs.Create(ctx, &models.Complaint{CitizenID: 1, Status: models.StatusSubmitted}))
	require.NoError(t, cs.Create(ctx, &models.Complaint{CitizenID: 2, Status: models.StatusAssigned, AssignedDepartment: &roads}))
	require.NoError(t, cs.Create(ctx, &models.Complaint{CitizenID: 1, Status: models.StatusAssigned, AssignedDepartment: &roads}))

	all, err := cs.List(ctx, models.ComplaintFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID, "newest first")

	mine, err := cs.List(ctx, models.ComplaintFilter{CitizenID: 1})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	assignedRoads, err := cs.List(ctx, models.ComplaintFilter{Department: "Roads", Status: models.StatusAssigned})
	require.NoError(t, err)
	assert.Len(t, assignedRoads, 2)

	lowered, err := cs.List(ctx, models.ComplaintFilter{Department: "roads"})
	require.NoError(t, err)
	assert.Len(t, lowered, 2, "department filter ignores case")

	none, err := cs.List(ctx, models.ComplaintFilter{Status: models.StatusCompleted})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUsers_EmailIsCaseInsensitive(t *testing.T) {
	us := NewStore().Users()
	ctx := context.Background()

	require.NoError(t, us.Create(ctx, &models.User{Email: "Asha@Example.com", Role: models.RoleCitizen}))
	assert.ErrorIs(t, us.Create(ctx, &models.User{Email: "asha@example.com"}), store.ErrDuplicate)

	u, err := us.FindByEmail(ctx, "ASHA@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "Asha@Example.com", u.Email)

	_, err = us.FindByEmail(ctx, "ravi@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestActivity_NewestFirstWithLimit(t *testing.T) {
	as := NewStore().Activity()
	ctx := context.Background()

	for i, id := range []int64{1, 2, 1, 1} {
		require.NoError(t, as.Append(ctx, &models.ActivityLog{ComplaintID: id, ActionDescription: string(rune('a' + i))}))
	}

	byOne, err := as.ListByComplaint(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, byOne, 2)
	assert.Equal(t, "d", byOne[0].ActionDescription)
	assert.Equal(t, "c", byOne[1].ActionDescription)

	recent, err := as.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 4)
	assert.Equal(t, int64(4), recent[0].ID)
}
