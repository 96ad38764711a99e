package controller_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/littup/forge/internal/controller"
	"github.com/littup/forge/internal/sandbox"
	"github.com/littup/forge/internal/storage"
	"github.com/littup/forge/internal/testutil/mocks"
	"github.com/littup/forge/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	gormlogger "gorm.io/gorm/logger"
)

// failingSeed는 Seed만 실패시키는 workspace.Manager입니다.
type failingSeed struct {
	workspace.Manager
}

func (f failingSeed) Seed(int64, string) (bool, error) {
	return false, errors.New("disk full")
}

type harness struct {
	ctrl     *controller.Controller
	repo     *storage.Repository
	files    workspace.Manager
	notifier *mocks.MockNotifier
	config   workspace.Config
}

func newHarness(t *testing.T, wrap func(workspace.Manager) workspace.Manager) *harness {
	t.Helper()
	return newHarnessWithExecutor(t, wrap, nil)
}

func newHarnessWithExecutor(t *testing.T, wrap func(workspace.Manager) workspace.Manager, executor sandbox.Executor) *harness {
	t.Helper()
	root := t.TempDir()

	db, err := storage.Open(storage.Config{DSN: filepath.Join(root, "littup.db"), LogLevel: gormlogger.Silent})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrate(db))
	t.Cleanup(func() { _ = storage.Close(db) })

	repo, err := storage.NewRepository(db)
	require.NoError(t, err)

	config := workspace.Config{
		ProjectsDir:  filepath.Join(root, "projects"),
		TemplatesDir: filepath.Join(root, "templates"),
	}
	_, err = workspace.InstallTemplates(config.TemplatesDir)
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	var files workspace.Manager = workspace.NewManager(logger, config)
	if wrap != nil {
		files = wrap(files)
	}

	if executor == nil {
		executor = sandbox.NewLocalExecutor(logger)
	}
	sb := sandbox.New(logger, executor, sandbox.Config{
		Timeout: 5 * time.Second,
		TempDir: t.TempDir(),
	})

	ctrl := controller.NewController(logger, repo, files, sb)
	notifier := &mocks.MockNotifier{}
	ctrl.SetNotifier(notifier)

	return &harness{ctrl: ctrl, repo: repo, files: files, notifier: notifier, config: config}
}

func (h *harness) createProject(t *testing.T, name string) *storage.Project {
	t.Helper()
	project, err := h.ctrl.CreateProject(context.Background(), name, "python_script", "Triad Build Squad")
	require.NoError(t, err)
	return project
}

func TestCreateProjectSeedsTemplateAndSnapshot(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	project := h.createProject(t, "My Local Forge")
	assert.Equal(t, "python_script", project.Template)
	assert.Equal(t, "Triad Build Squad", project.TeamName)
	assert.Equal(t, storage.ProjectStatusActive, project.Status)

	files, err := h.ctrl.ListFiles(ctx, project.ID)
	require.NoError(t, err)
	assert.Contains(t, files, "main.py")

	snaps, err := h.ctrl.ListSnapshots(ctx, project.ID, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, controller.InitialSnapshotNote, snaps[0].Note)

	_, tree, err := h.ctrl.GetSnapshot(ctx, project.ID, snaps[0].ID)
	require.NoError(t, err)
	assert.Len(t, tree, len(files))

	assert.Len(t, h.notifier.Kind(controller.EventSnapshot), 1)
}

func TestCreateProjectDefaultsAndNormalization(t *testing.T) {
	h := newHarness(t, nil)

	project, err := h.ctrl.CreateProject(context.Background(), "  Café Forge ", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Café Forge", project.Name)
	assert.Equal(t, storage.DefaultTemplate, project.Template)
	assert.Equal(t, storage.DefaultTeamName, project.TeamName)
}

func TestCreateProjectUnknownTemplateHasNoFiles(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	project, err := h.ctrl.CreateProject(ctx, "Blank", "missing_template", "")
	require.NoError(t, err)

	files, err := h.ctrl.ListFiles(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, files)

	count, err := h.repo.CountSnapshots(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateProjectRejectsInvalidInput(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.ctrl.CreateProject(ctx, "   ", "python_script", "")
	assert.ErrorIs(t, err, controller.ErrInvalidInput)

	_, err = h.ctrl.CreateProject(ctx, "Escape", "../etc", "")
	assert.ErrorIs(t, err, controller.ErrInvalidInput)
}

func TestCreateProjectDuplicateName(t *testing.T) {
	h := newHarness(t, nil)
	h.createProject(t, "Twin")

	_, err := h.ctrl.CreateProject(context.Background(), "Twin", "game", "")
	assert.ErrorIs(t, err, storage.ErrProjectNameTaken)

	projects, err := h.ctrl.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestCreateProjectRollsBackOnSeedFailure(t *testing.T) {
	h := newHarness(t, func(m workspace.Manager) workspace.Manager { return failingSeed{m} })
	ctx := context.Background()

	_, err := h.ctrl.CreateProject(ctx, "Broken", "python_script", "")
	require.Error(t, err)

	projects, err := h.ctrl.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects, "orphan project row must be removed")
	assert.NoDirExists(t, filepath.Join(h.config.ProjectsDir, "project_1"))
}

func TestAddMessageWritesMemory(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	project := h.createProject(t, "Mirror")

	msg, err := h.ctrl.AddMessage(ctx, project.ID, "Planner", "hello team")
	require.NoError(t, err)
	assert.Equal(t, int64(1), msg.Seq)

	messages, err := h.ctrl.ListMessages(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	memories, err := h.ctrl.ListMemories(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, "Planner: hello team", memories[0].Content)
	assert.Equal(t, storage.MemorySourceMemoria, memories[0].Source)

	events := h.notifier.Kind(controller.EventMemory)
	require.Len(t, events, 1)
	assert.Equal(t, "Planner: hello team", events[0].Content)
	assert.Equal(t, project.ID, events[0].ProjectID)
}

func TestAddMessageUnknownProject(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.ctrl.AddMessage(context.Background(), 404, "Planner", "anyone?")
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)

	_, err = h.ctrl.ListMessages(context.Background(), 404)
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)
}

func TestChatRecordsScriptedReplies(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	project := h.createProject(t, "Chatty")

	batch, err := h.ctrl.Chat(ctx, project.ID, "Build a CLI todo app")
	require.NoError(t, err)
	require.Len(t, batch, 5)

	messages, err := h.ctrl.ListMessages(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, messages, 5)

	gotRoles := make([]string, 0, len(messages))
	for _, m := range messages {
		gotRoles = append(gotRoles, m.Role)
	}
	assert.Equal(t, controller.Roles(), gotRoles)
	assert.Equal(t, "Build a CLI todo app", messages[0].Content)
	assert.Equal(t, "Drafted initial implementation path based on planner brief.", messages[1].Content)

	memories, err := h.ctrl.ListMemories(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, memories, 5)

	_, err = h.ctrl.Chat(ctx, project.ID, "   ")
	assert.ErrorIs(t, err, controller.ErrInvalidInput)
}

func TestEvolve(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	project := h.createProject(t, "Evolving")

	feedback := strings.Repeat("가", 70) + " add tests"
	reply, err := h.ctrl.Evolve(ctx, project.ID, feedback)
	require.NoError(t, err)
	assert.Contains(t, reply, feedback)

	messages, err := h.ctrl.ListMessages(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, controller.RolePlanner, messages[0].Role)
	assert.Equal(t, reply, messages[0].Content)
	assert.Equal(t, controller.RoleReviewer, messages[1].Role)

	snaps, err := h.ctrl.ListSnapshots(ctx, project.ID, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "Evolution: "+strings.Repeat("가", 60), snaps[0].Note)
	assert.True(t, utf8.ValidString(snaps[0].Note))
}

func TestEvolveEmptyFeedbackAndMissingProject(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	project := h.createProject(t, "Quiet")

	reply, err := h.ctrl.Evolve(ctx, project.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Roadmap evolved with feedback: ", reply)

	snaps, err := h.ctrl.ListSnapshots(ctx, project.ID, 1)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "Evolution: ", snaps[0].Note)

	_, err = h.ctrl.Evolve(ctx, 9999, "nope")
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)

	count, err := h.repo.CountSnapshots(ctx, 9999)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEvolveKeepsFeedbackVerbatim(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	project := h.createProject(t, "Padded")

	feedback := "  indent me\n"
	reply, err := h.ctrl.Evolve(ctx, project.ID, feedback)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap evolved with feedback: "+feedback, reply)

	messages, err := h.ctrl.ListMessages(ctx, project.ID)
	require.NoError(t, err)
	require.NotEmpty(t, messages)
	assert.Equal(t, reply, messages[0].Content)

	snaps, err := h.ctrl.ListSnapshots(ctx, project.ID, 1)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "Evolution: "+feedback, snaps[0].Note)
}

func TestFeedbackOrDefault(t *testing.T) {
	assert.Equal(t, controller.DefaultFeedback, controller.FeedbackOrDefault(""))
	assert.Equal(t, controller.DefaultFeedback, controller.FeedbackOrDefault(" \t\n"))
	assert.Equal(t, " keep me ", controller.FeedbackOrDefault(" keep me "))
}

func TestAddMessageKeepsRoleVerbatim(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	project := h.createProject(t, "Roles")

	_, err := h.ctrl.AddMessage(ctx, project.ID, " Coder ", "x")
	require.NoError(t, err)
	_, err = h.ctrl.AddMessage(ctx, project.ID, "", "anonymous")
	require.NoError(t, err)

	messages, err := h.ctrl.ListMessages(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, " Coder ", messages[0].Role)
	assert.Equal(t, "", messages[1].Role)

	memories, err := h.ctrl.ListMemories(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, memories, 2)
	assert.Equal(t, " Coder : x", memories[0].Content)
	assert.Equal(t, ": anonymous", memories[1].Content)
}

func TestSaveFileSnapshotsAndRestore(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	project := h.createProject(t, "Editor")

	original, err := h.ctrl.ReadFile(ctx, project.ID, "main.py")
	require.NoError(t, err)
	require.NotEmpty(t, original)

	snaps, err := h.ctrl.ListSnapshots(ctx, project.ID, 1)
	require.NoError(t, err)
	initial := snaps[0]

	snap, err := h.ctrl.SaveFile(ctx, project.ID, "main.py", "print('edited')\n")
	require.NoError(t, err)
	assert.Equal(t, "Edited main.py", snap.Note)

	content, err := h.ctrl.ReadFile(ctx, project.ID, "main.py")
	require.NoError(t, err)
	assert.Equal(t, "print('edited')\n", content)

	restored, err := h.ctrl.RestoreSnapshot(ctx, project.ID, initial.ID)
	require.NoError(t, err)
	assert.NotEqual(t, initial.ID, restored.ID)

	content, err = h.ctrl.ReadFile(ctx, project.ID, "main.py")
	require.NoError(t, err)
	assert.Equal(t, original, content)

	missing, err := h.ctrl.ReadFile(ctx, project.ID, "never.txt")
	require.NoError(t, err)
	assert.Equal(t, "", missing)

	err = h.ctrl.WriteFile(ctx, project.ID, "../escape.txt", "x")
	assert.ErrorIs(t, err, workspace.ErrInvalidPath)
}

func TestRunCommand(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	project := h.createProject(t, "Runner")

	rejected, err := h.ctrl.RunCommand(ctx, project.ID, "rm -rf /")
	require.NoError(t, err)
	assert.Equal(t, 1, rejected.ExitCode)
	assert.Equal(t, sandbox.PolicyMessage, rejected.Output)

	listed, err := h.ctrl.RunCommand(ctx, project.ID, "sh -c 'ls'")
	require.NoError(t, err)
	assert.Equal(t, 0, listed.ExitCode)
	assert.Contains(t, listed.Output, "main.py")

	_, err = h.ctrl.RunCommand(ctx, 9999, "sh -c 'ls'")
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)

	metrics := h.ctrl.SandboxMetrics()
	assert.Equal(t, int64(1), metrics.RunsRejected)
	assert.Equal(t, int64(1), metrics.RunsSucceeded)
}

func TestRunAndTestDefaultsUseProjectCopy(t *testing.T) {
	exec := mocks.NewMockExecutor()
	exec.SetResponse(controller.DefaultTestCommand, sandbox.Output{Stdout: "3 passed"})
	exec.SetResponse(controller.DefaultRunCommand, sandbox.Output{ExitCode: 2, Stderr: "Traceback"})

	h := newHarnessWithExecutor(t, nil, exec)
	ctx := context.Background()
	project := h.createProject(t, "Mocked")

	tested, err := h.ctrl.TestProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "3 passed", tested.Output)
	assert.True(t, tested.Succeeded())

	ran, err := h.ctrl.RunProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ran.ExitCode)
	assert.Equal(t, "Traceback", ran.Output)

	require.Equal(t, 2, exec.GetCallCount())
	assert.Equal(t, controller.DefaultRunCommand, exec.GetLastCall().Command)
	for _, names := range exec.Files {
		assert.Contains(t, names, "main.py")
	}

	projectDir, err := h.files.PathFor(project.ID)
	require.NoError(t, err)
	for _, call := range exec.Calls {
		assert.NotEqual(t, projectDir, call.WorkDir, "commands must run on a copy")
	}
}

func TestRunCommandExecutorFailure(t *testing.T) {
	exec := mocks.NewMockExecutor()
	exec.SetErrorMessage("python crash.py", "executor gone")

	h := newHarnessWithExecutor(t, nil, exec)
	project := h.createProject(t, "Broken")

	_, err := h.ctrl.RunCommand(context.Background(), project.ID, "python crash.py")
	require.Error(t, err)

	var runErr *sandbox.RunError
	assert.ErrorAs(t, err, &runErr)
}

func TestUpdateAndDeleteProject(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	project := h.createProject(t, "Temporary")

	archived := storage.ProjectStatusArchived
	summary := "Retired prototype"
	updated, err := h.ctrl.UpdateProject(ctx, project.ID, controller.ProjectChanges{Status: &archived, Summary: &summary})
	require.NoError(t, err)
	assert.Equal(t, archived, updated.Status)
	assert.Equal(t, summary, updated.Summary)

	bogus := "frozen"
	_, err = h.ctrl.UpdateProject(ctx, project.ID, controller.ProjectChanges{Status: &bogus})
	assert.ErrorIs(t, err, controller.ErrInvalidInput)

	dir := filepath.Join(h.config.ProjectsDir, workspace.ProjectDirName(project.ID))
	require.DirExists(t, dir)

	require.NoError(t, h.ctrl.DeleteProject(ctx, project.ID))
	assert.NoDirExists(t, dir)

	_, err = h.ctrl.GetProject(ctx, project.ID)
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)
	assert.ErrorIs(t, h.ctrl.DeleteProject(ctx, project.ID), storage.ErrProjectNotFound)
}

func TestStaticCatalogs(t *testing.T) {
	integrations := controller.Integrations()
	assert.Len(t, integrations, 3)
	for _, name := range []string{"Agentora", "Memoria", "Launchpad"} {
		assert.Contains(t, integrations, name)
	}

	assert.Equal(t, []string{"Planner", "Coder", "Tester", "Reviewer", "Documenter"}, controller.Roles())

	team := controller.DefaultTeamAssignment()
	assert.Equal(t, "Strategos", team["Planner"])
	assert.Equal(t, "Lorekeeper", team["Documenter"])

	// 반환값 수정이 내부 상태에 영향 없음
	team["Planner"] = "changed"
	assert.Equal(t, "Strategos", controller.DefaultTeamAssignment()["Planner"])
}

func TestEvolutionNote(t *testing.T) {
	assert.Equal(t, "Evolution: short", controller.EvolutionNote("short"))
	long := strings.Repeat("x", 100)
	assert.Equal(t, "Evolution: "+long[:60], controller.EvolutionNote(long))
}
