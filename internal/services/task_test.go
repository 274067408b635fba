package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrejsk/taskvault/internal/common"
	"github.com/andrejsk/taskvault/internal/keystore"
	"github.com/andrejsk/taskvault/internal/logging"
	"github.com/andrejsk/taskvault/internal/models"
	"github.com/andrejsk/taskvault/internal/storage"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTaskService(t *testing.T) (*TaskService, *storage.Repositories) {
	t.Helper()

	repos, err := storage.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	keys := keystore.New(filepath.Join(t.TempDir(), "master.key"))
	return NewTaskService(repos.DB, keys, discardLogger()), repos
}

func storedDetails(t *testing.T, repos *storage.Repositories, taskID int64) string {
	t.Helper()
	var details string
	require.NoError(t, repos.DB.QueryRow(`SELECT details FROM tasks WHERE task_id = ?`, taskID).Scan(&details))
	return details
}

func storedWrap(t *testing.T, repos *storage.Repositories, userID, taskID int64) string {
	t.Helper()
	var wrap string
	require.NoError(t, repos.DB.QueryRow(
		`SELECT wrapped_key FROM key_wraps WHERE user_id = ? AND task_id = ?`, userID, taskID).Scan(&wrap))
	return wrap
}

func TestCreateAndRead_Owner(t *testing.T) {
	s, _ := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Groceries", "buy milk", 1, nil)
	require.NoError(t, err)
	assert.Positive(t, taskID)

	view, err := s.Read(ctx, taskID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", view.Title)
	assert.Equal(t, "buy milk", view.Details)
	assert.Equal(t, int64(1), view.CreatedBy)
	assert.Equal(t, int64(1), view.UpdatedBy)
	assert.False(t, view.IsComplete)
	assert.NotEmpty(t, view.CreatedAt)
}

func TestCreate_TitleValidation(t *testing.T) {
	s, _ := newTaskService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "", "details", 1, nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Create(ctx, "   ", "details", 1, nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	// title is trimmed on the way in
	taskID, err := s.Create(ctx, "  padded  ", "", 1, nil)
	require.NoError(t, err)
	view, err := s.Read(ctx, taskID, 1)
	require.NoError(t, err)
	assert.Equal(t, "padded", view.Title)
}

func TestCreate_EmptyDetailsRoundTrip(t *testing.T) {
	s, _ := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "no details", "", 1, nil)
	require.NoError(t, err)

	view, err := s.Read(ctx, taskID, 1)
	require.NoError(t, err)
	assert.Equal(t, "", view.Details)
}

func TestCreate_AtRestConfidentiality(t *testing.T) {
	s, repos := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Secret", "Hidden notes", 1, nil)
	require.NoError(t, err)

	assert.NotContains(t, storedDetails(t, repos, taskID), "Hidden notes")

	list, err := s.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Hidden notes", list[0].Details)
}

func TestCreate_SharedContentInvariant(t *testing.T) {
	s, _ := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Shared", "same payload", 1, []int64{2})
	require.NoError(t, err)

	ownerView, err := s.Read(ctx, taskID, 1)
	require.NoError(t, err)
	collabView, err := s.Read(ctx, taskID, 2)
	require.NoError(t, err)

	assert.Equal(t, ownerView.Details, collabView.Details)
	assert.Equal(t, "same payload", collabView.Details)
}

func TestCreate_DedupesSharedWith(t *testing.T) {
	s, repos := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Dupes", "x", 1, []int64{1, 2, 2, 0, -5})
	require.NoError(t, err)

	var wraps int
	require.NoError(t, repos.DB.QueryRow(
		`SELECT count(*) FROM key_wraps WHERE task_id = ?`, taskID).Scan(&wraps))
	assert.Equal(t, 2, wraps, "owner plus one distinct collaborator")
}

func TestRead_StrangerGetsNotFound(t *testing.T) {
	s, _ := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Private", "owner only", 1, nil)
	require.NoError(t, err)

	_, err = s.Read(ctx, taskID, 99)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// same answer for a task that does not exist at all
	_, err = s.Read(ctx, taskID+100, 1)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestShare_TargetReadsSameContent(t *testing.T) {
	s, _ := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "ToShare", "payload", 1, nil)
	require.NoError(t, err)

	require.NoError(t, s.Share(ctx, taskID, 1, 2))

	v1, err := s.Read(ctx, taskID, 1)
	require.NoError(t, err)
	v2, err := s.Read(ctx, taskID, 2)
	require.NoError(t, err)
	assert.Equal(t, v1.Details, v2.Details)
}

func TestShare_AnyHolderCanExtendAccess(t *testing.T) {
	s, _ := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Chain", "payload", 1, []int64{2})
	require.NoError(t, err)

	// user 2 is a collaborator, not the creator, and can still share
	require.NoError(t, s.Share(ctx, taskID, 2, 3))

	v3, err := s.Read(ctx, taskID, 3)
	require.NoError(t, err)
	assert.Equal(t, "payload", v3.Details)
}

func TestShare_WithoutWrapIsNotAuthorized(t *testing.T) {
	s, repos := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Task", "payload", 1, nil)
	require.NoError(t, err)

	err = s.Share(ctx, taskID, 42, 2)
	assert.ErrorIs(t, err, common.ErrorNotAuthorized)

	// the failed share must leave no partial state behind
	var n int
	require.NoError(t, repos.DB.QueryRow(
		`SELECT count(*) FROM authorization_grants WHERE user_id = 2`).Scan(&n))
	assert.Zero(t, n)
}

func TestShare_Idempotent(t *testing.T) {
	s, _ := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Task", "payload", 1, nil)
	require.NoError(t, err)

	require.NoError(t, s.Share(ctx, taskID, 1, 2))
	require.NoError(t, s.Share(ctx, taskID, 1, 2))

	v2, err := s.Read(ctx, taskID, 2)
	require.NoError(t, err)
	assert.Equal(t, "payload", v2.Details)
}

func TestUpdate_KeepsContentKey(t *testing.T) {
	s, repos := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Task", "old value", 1, []int64{2})
	require.NoError(t, err)

	ownerWrapBefore := storedWrap(t, repos, 1, taskID)

	newDetails := "New value"
	require.NoError(t, s.Update(ctx, taskID, 2, models.TaskUpdate{Details: &newDetails}))

	// the collaborator's update must not rotate the key: the owner's wrap
	// is untouched and still decrypts the new content
	assert.Equal(t, ownerWrapBefore, storedWrap(t, repos, 1, taskID))

	v1, err := s.Read(ctx, taskID, 1)
	require.NoError(t, err)
	v2, err := s.Read(ctx, taskID, 2)
	require.NoError(t, err)
	assert.Equal(t, "New value", v1.Details)
	assert.Equal(t, "New value", v2.Details)
}

func TestUpdate_ReencryptsAtRest(t *testing.T) {
	s, repos := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Task", "old", 1, nil)
	require.NoError(t, err)

	newDetails := "fresh plaintext"
	require.NoError(t, s.Update(ctx, taskID, 1, models.TaskUpdate{Details: &newDetails}))

	assert.NotContains(t, storedDetails(t, repos, taskID), "fresh plaintext")
}

func TestUpdate_CompletionAndTitle(t *testing.T) {
	s, _ := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Task", "payload", 1, nil)
	require.NoError(t, err)

	done := true
	title := "Renamed"
	require.NoError(t, s.Update(ctx, taskID, 1, models.TaskUpdate{Title: &title, IsComplete: &done}))

	view, err := s.Read(ctx, taskID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Title)
	assert.True(t, view.IsComplete)
	assert.Equal(t, "payload", view.Details, "details must survive a metadata-only update")
}

func TestUpdate_Validation(t *testing.T) {
	s, _ := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Task", "payload", 1, nil)
	require.NoError(t, err)

	err = s.Update(ctx, taskID, 1, models.TaskUpdate{})
	assert.ErrorIs(t, err, common.ErrorNoUpdates)

	empty := "   "
	err = s.Update(ctx, taskID, 1, models.TaskUpdate{Title: &empty})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestUpdate_WithoutAccessIsNotAuthorized(t *testing.T) {
	s, _ := newTaskService(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Task", "payload", 1, nil)
	require.NoError(t, err)

	details := "hijack"
	err = s.Update(ctx, taskID, 2, models.TaskUpdate{Details: &details})
	assert.ErrorIs(t, err, common.ErrorNotAuthorized)

	view, err := s.Read(ctx, taskID, 1)
	require.NoError(t, err)
	assert.Equal(t, "payload", view.Details, "prior state must be untouched")
}

func TestListForUser_OnlyAuthorizedInCreationOrder(t *testing.T) {
	s, repos := newTaskService(t)
	ctx := context.Background()

	first, err := s.Create(ctx, "first", "1", 1, nil)
	require.NoError(t, err)
	second, err := s.Create(ctx, "second", "2", 1, []int64{2})
	require.NoError(t, err)
	_, err = s.Create(ctx, "foreign", "3", 3, nil)
	require.NoError(t, err)

	// force identical timestamps so insertion order must break ties
	_, err = repos.DB.Exec(`UPDATE tasks SET created_at = '2024-01-01 00:00:00'`)
	require.NoError(t, err)

	list, err := s.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].ID)
	assert.Equal(t, second, list[1].ID)

	list2, err := s.ListForUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list2, 1)
	assert.Equal(t, second, list2[0].ID)

	empty, err := s.ListForUser(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRead_FailsAfterMasterSecretLoss(t *testing.T) {
	repos, err := storage.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	dir := t.TempDir()
	keysA := keystore.New(filepath.Join(dir, "a.key"))
	s := NewTaskService(repos.DB, keysA, discardLogger())
	ctx := context.Background()

	taskID, err := s.Create(ctx, "Task", "payload", 1, nil)
	require.NoError(t, err)

	// a service anchored to a different master secret cannot unwrap
	keysB := keystore.New(filepath.Join(dir, "b.key"))
	s2 := NewTaskService(repos.DB, keysB, discardLogger())

	_, err = s2.Read(ctx, taskID, 1)
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
}
