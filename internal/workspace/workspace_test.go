package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) (Manager, Config) {
	t.Helper()

	root := t.TempDir()
	config := Config{
		ProjectsDir:  filepath.Join(root, "projects"),
		TemplatesDir: filepath.Join(root, "templates"),
	}
	_, err := InstallTemplates(config.TemplatesDir)
	require.NoError(t, err)

	return NewManager(zap.NewNop(), config), config
}

func TestManager_PathFor(t *testing.T) {
	m, config := newTestManager(t)

	path, err := m.PathFor(7)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(config.ProjectsDir, "project_7"), path)
	assert.DirExists(t, path)

	// 두 번째 호출도 같은 경로 반환
	again, err := m.PathFor(7)
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestManager_Seed_PythonScript(t *testing.T) {
	m, _ := newTestManager(t)

	seeded, err := m.Seed(1, "python_script")
	require.NoError(t, err)
	assert.True(t, seeded)

	files, err := m.ListFiles(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "main.py", "test_main.py"}, files)
}

func TestManager_Seed_OnlyWhenEmpty(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.WriteFile(1, "notes.txt", "mine"))

	seeded, err := m.Seed(1, "python_script")
	require.NoError(t, err)
	assert.False(t, seeded)

	files, err := m.ListFiles(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, files)
}

func TestManager_Seed_UnknownTemplate(t *testing.T) {
	m, _ := newTestManager(t)

	seeded, err := m.Seed(1, "does_not_exist")
	require.NoError(t, err)
	assert.False(t, seeded)

	files, err := m.ListFiles(1)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestManager_Seed_RejectsTraversal(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Seed(1, "../templates")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestManager_ReadFile_Missing(t *testing.T) {
	m, _ := newTestManager(t)

	content, err := m.ReadFile(3, "never/written.txt")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestManager_WriteReadRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)

	content := "print('round trip')\n# ünïcode ✓\n"
	require.NoError(t, m.WriteFile(3, "src/pkg/app.py", content))

	got, err := m.ReadFile(3, "src/pkg/app.py")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	files, err := m.ListFiles(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/pkg/app.py"}, files)
}

func TestManager_RejectsEscapingPaths(t *testing.T) {
	m, _ := newTestManager(t)

	for _, rel := range []string{"../outside.txt", "/etc/passwd", "a/../../b", "", "."} {
		_, err := m.ReadFile(3, rel)
		assert.ErrorIs(t, err, ErrInvalidPath, rel)
		assert.ErrorIs(t, m.WriteFile(3, rel, "x"), ErrInvalidPath, rel)
	}
}

func TestManager_ReadAndRestoreTree(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.WriteFile(5, "a.txt", "x"))
	require.NoError(t, m.WriteFile(5, "b.txt", "y"))

	tree, err := m.ReadTree(5)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.txt": "x", "b.txt": "y"}, tree)

	require.NoError(t, m.WriteFile(5, "a.txt", "changed"))
	require.NoError(t, m.WriteFile(5, "extra/c.txt", "z"))

	require.NoError(t, m.RestoreTree(5, tree))

	restored, err := m.ReadTree(5)
	require.NoError(t, err)
	assert.Equal(t, tree, restored)
}

func TestManager_Remove(t *testing.T) {
	m, config := newTestManager(t)

	require.NoError(t, m.WriteFile(9, "a.txt", "x"))
	require.NoError(t, m.Remove(9))
	assert.NoDirExists(t, filepath.Join(config.ProjectsDir, "project_9"))

	// 없는 디렉토리 삭제도 에러 없음
	require.NoError(t, m.Remove(9))
}

func TestManager_Templates(t *testing.T) {
	m, _ := newTestManager(t)

	names, err := m.Templates()
	require.NoError(t, err)
	assert.Equal(t, BundledTemplates, names)
}

func TestInstallTemplates_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()

	written, err := InstallTemplates(dir)
	require.NoError(t, err)
	assert.Positive(t, written)

	custom := filepath.Join(dir, "python_script", "main.py")
	require.NoError(t, os.WriteFile(custom, []byte("print('custom')"), 0644))

	again, err := InstallTemplates(dir)
	require.NoError(t, err)
	assert.Zero(t, again)

	data, err := os.ReadFile(custom)
	require.NoError(t, err)
	assert.Equal(t, "print('custom')", string(data))
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")

	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested", "deep"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "deep", "leaf.sh"), []byte("echo hi"), 0755))

	require.NoError(t, CopyTree(src, dst))

	files, err := listFiles(dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"nested/deep/leaf.sh", "top.txt"}, files)

	info, err := os.Stat(filepath.Join(dst, "nested", "deep", "leaf.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}
