package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/littup/forge/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *storage.Repository {
	t.Helper()

	db, err := storage.Open(storage.Config{
		DSN:      filepath.Join(t.TempDir(), "littup.db"),
		LogLevel: gormlogger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrate(db))
	t.Cleanup(func() {
		require.NoError(t, storage.Close(db))
	})

	repo, err := storage.NewRepository(db)
	require.NoError(t, err)
	return repo
}

func createProject(t *testing.T, repo *storage.Repository, name string) *storage.Project {
	t.Helper()
	project := &storage.Project{Name: name}
	require.NoError(t, repo.CreateProject(context.Background(), project))
	return project
}

func TestNewRepositoryRequiresDB(t *testing.T) {
	_, err := storage.NewRepository(nil)
	require.Error(t, err)
}

func TestCreateProjectDefaults(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	project := createProject(t, repo, "Forge")
	require.NotZero(t, project.ID)

	got, err := repo.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Forge", got.Name)
	assert.Equal(t, storage.DefaultTemplate, got.Template)
	assert.Equal(t, storage.ProjectStatusActive, got.Status)
	assert.Equal(t, storage.DefaultTeamName, got.TeamName)
	assert.Equal(t, "", got.Summary)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreateProjectDuplicateName(t *testing.T) {
	repo := newTestRepository(t)
	createProject(t, repo, "Same Name")

	err := repo.CreateProject(context.Background(), &storage.Project{Name: "Same Name"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrProjectNameTaken))
}

func TestGetProjectNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetProject(context.Background(), 42)
	require.ErrorIs(t, err, storage.ErrProjectNotFound)

	exists, err := repo.ProjectExists(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAppendMessageOrdering(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	project := createProject(t, repo, "Chatty")

	roles := []string{"Planner", "Coder", "Tester", "Reviewer", "Documenter"}
	for _, role := range roles {
		_, err := repo.AppendMessage(ctx, project.ID, role, role+" says hi")
		require.NoError(t, err)
	}

	messages, err := repo.ListMessages(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, messages, len(roles))
	for i, msg := range messages {
		assert.Equal(t, int64(i+1), msg.Seq)
		assert.Equal(t, roles[i], msg.Role)
	}
}

func TestAppendMessageRequiresExistingProject(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.AppendMessage(context.Background(), 999, "Planner", "orphan")
	require.Error(t, err, "foreign key must reject orphan messages")
}

func TestTransactionRollsBack(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	project := createProject(t, repo, "Atomic")

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx *storage.Repository) error {
		if _, err := tx.AppendMessage(ctx, project.ID, "Planner", "lost"); err != nil {
			return err
		}
		if _, err := tx.AppendMemory(ctx, project.ID, "", "Planner: lost"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	messages, err := repo.ListMessages(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	memories, err := repo.ListMemories(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, memories)
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	project := createProject(t, repo, "Panicky")

	assert.Panics(t, func() {
		_ = repo.Transaction(ctx, func(tx *storage.Repository) error {
			_, _ = tx.AppendMessage(ctx, project.ID, "Planner", "lost")
			panic("boom")
		})
	})

	messages, err := repo.ListMessages(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSnapshotsNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	project := createProject(t, repo, "Snappy")

	for _, note := range []string{"first", "second", "third"} {
		require.NoError(t, repo.CreateSnapshot(ctx, &storage.Snapshot{
			ProjectID: project.ID,
			Note:      note,
			Content:   datatypes.JSON(`{}`),
		}))
	}

	snapshots, err := repo.ListSnapshots(ctx, project.ID, 0)
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	assert.Equal(t, "third", snapshots[0].Note)
	assert.Equal(t, "first", snapshots[2].Note)

	limited, err := repo.ListSnapshots(ctx, project.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	count, err := repo.CountSnapshots(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = repo.GetSnapshot(ctx, project.ID, snapshots[0].ID+100)
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)
}

func TestDeleteProjectCascades(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	project := createProject(t, repo, "Doomed")

	_, err := repo.AppendMessage(ctx, project.ID, "Planner", "hello")
	require.NoError(t, err)
	_, err = repo.AppendMemory(ctx, project.ID, "", "Planner: hello")
	require.NoError(t, err)
	require.NoError(t, repo.CreateSnapshot(ctx, &storage.Snapshot{ProjectID: project.ID, Content: datatypes.JSON(`{}`)}))

	require.NoError(t, repo.DeleteProject(ctx, project.ID))

	_, err = repo.GetProject(ctx, project.ID)
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)

	messages, err := repo.ListMessages(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	count, err := repo.CountSnapshots(ctx, project.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.ErrorIs(t, repo.DeleteProject(ctx, project.ID), storage.ErrProjectNotFound)
}

func TestUpdateAndTouchProject(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	project := createProject(t, repo, "Mutable")

	summary := "A small forge"
	status := storage.ProjectStatusArchived
	require.NoError(t, repo.UpdateProject(ctx, project.ID, storage.ProjectUpdate{Summary: &summary, Status: &status}))

	got, err := repo.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, summary, got.Summary)
	assert.Equal(t, status, got.Status)
	assert.False(t, got.UpdatedAt.Before(project.UpdatedAt))

	require.NoError(t, repo.TouchProject(ctx, project.ID))
	assert.ErrorIs(t, repo.TouchProject(ctx, 12345), storage.ErrProjectNotFound)
}

func TestListProjectsRecentFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	older := createProject(t, repo, "Older")
	createProject(t, repo, "Newer")

	require.NoError(t, repo.TouchProject(ctx, older.ID))

	projects, err := repo.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Older", projects[0].Name)
}

func TestPostgresDSNDetection(t *testing.T) {
	assert.True(t, storage.IsPostgresDSN("postgres://u:p@localhost/littup"))
	assert.True(t, storage.IsPostgresDSN("host=localhost user=littup dbname=littup"))
	assert.False(t, storage.IsPostgresDSN("/tmp/littup.db"))
	assert.Equal(t, "/tmp/a.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", storage.SQLiteDSN("/tmp/a.db"))
	assert.Equal(t, "file::memory:?cache=shared&_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", storage.SQLiteDSN("file::memory:?cache=shared"))
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "projects", storage.Project{}.TableName())
	assert.Equal(t, "agent_messages", storage.AgentMessage{}.TableName())
	assert.Equal(t, "snapshots", storage.Snapshot{}.TableName())
	assert.Equal(t, "memories", storage.Memory{}.TableName())
}

func TestAppendMessageKeepsRoleAsGiven(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	project := createProject(t, repo, "Free Roles")

	_, err := repo.AppendMessage(ctx, project.ID, "", "no role")
	require.NoError(t, err)
	_, err = repo.AppendMessage(ctx, project.ID, " Coder ", "padded")
	require.NoError(t, err)

	messages, err := repo.ListMessages(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "", messages[0].Role)
	assert.Equal(t, " Coder ", messages[1].Role)
}
