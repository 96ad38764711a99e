package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrInvalidPath는 프로젝트 디렉토리 밖을 가리키는 경로에 대해 반환됩니다.
var ErrInvalidPath = errors.New("workspace: path escapes project directory")

// ProjectDirPrefix는 프로젝트 디렉토리 이름의 접두사입니다 (project_<id>).
const ProjectDirPrefix = "project_"

// Manager는 프로젝트 파일 트리를 관리합니다.
type Manager interface {
	// PathFor는 프로젝트 디렉토리 경로를 반환하고, 없으면 생성합니다.
	PathFor(projectID int64) (string, error)

	// Seed는 프로젝트 디렉토리가 비어 있을 때만 템플릿을 복사합니다.
	Seed(projectID int64, template string) (bool, error)

	// ListFiles는 프로젝트의 모든 파일을 정렬된 상대 경로로 반환합니다.
	ListFiles(projectID int64) ([]string, error)

	// ReadFile은 파일 내용을 반환합니다. 파일이 없으면 빈 문자열을 반환합니다.
	ReadFile(projectID int64, relPath string) (string, error)

	// WriteFile은 필요한 상위 디렉토리를 만들고 파일을 씁니다.
	WriteFile(projectID int64, relPath, content string) error

	// ReadTree는 프로젝트 전체 파일을 경로→내용 맵으로 읽습니다.
	ReadTree(projectID int64) (map[string]string, error)

	// RestoreTree는 프로젝트 디렉토리를 주어진 파일 집합과 정확히 일치시킵니다.
	RestoreTree(projectID int64, files map[string]string) error

	// Remove는 프로젝트 디렉토리를 삭제합니다.
	Remove(projectID int64) error

	// Templates는 사용 가능한 템플릿 이름을 반환합니다.
	Templates() ([]string, error)
}

// Config는 Manager 설정입니다.
type Config struct {
	ProjectsDir  string // 프로젝트 루트 (기본: {DataDir}/projects)
	TemplatesDir string // 템플릿 루트 (기본: {DataDir}/templates)
}

// manager는 Manager 구현체입니다.
type manager struct {
	config Config
	logger *zap.Logger
}

// NewManager는 새 Manager를 생성합니다.
func NewManager(logger *zap.Logger, config Config) Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 기본 디렉토리 생성
	if err := os.MkdirAll(config.ProjectsDir, 0755); err != nil {
		logger.Error("프로젝트 루트 생성 실패", zap.String("path", config.ProjectsDir), zap.Error(err))
	}

	return &manager{
		config: config,
		logger: logger,
	}
}

// ProjectDirName은 프로젝트 식별자에 대응하는 디렉토리 이름입니다.
func ProjectDirName(projectID int64) string {
	return ProjectDirPrefix + strconv.FormatInt(projectID, 10)
}

// PathFor implements Manager.
func (m *manager) PathFor(projectID int64) (string, error) {
	path := filepath.Join(m.config.ProjectsDir, ProjectDirName(projectID))
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("프로젝트 디렉토리 생성 실패 (%s): %w", path, err)
	}
	return path, nil
}

// ValidTemplateName은 템플릿 이름이 단일 디렉토리 이름인지 확인합니다.
func ValidTemplateName(template string) bool {
	return template != "" &&
		filepath.IsLocal(template) &&
		!strings.ContainsAny(template, `/\`)
}

// Seed implements Manager.
func (m *manager) Seed(projectID int64, template string) (bool, error) {
	if !ValidTemplateName(template) {
		return false, fmt.Errorf("%w: template %q", ErrInvalidPath, template)
	}

	dst, err := m.PathFor(projectID)
	if err != nil {
		return false, err
	}

	src := filepath.Join(m.config.TemplatesDir, template)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		m.logger.Warn("템플릿을 찾을 수 없어 시드를 건너뜀",
			zap.Int64("project_id", projectID),
			zap.String("template", template),
		)
		return false, nil
	}

	entries, err := os.ReadDir(dst)
	if err != nil {
		return false, fmt.Errorf("프로젝트 디렉토리 읽기 실패: %w", err)
	}
	if len(entries) > 0 {
		return false, nil
	}

	if err := CopyTree(src, dst); err != nil {
		return false, fmt.Errorf("템플릿 복사 실패: %w", err)
	}

	m.logger.Info("프로젝트 시드 완료",
		zap.Int64("project_id", projectID),
		zap.String("template", template),
		zap.String("path", dst),
	)
	return true, nil
}

// ListFiles implements Manager.
func (m *manager) ListFiles(projectID int64) ([]string, error) {
	root, err := m.PathFor(projectID)
	if err != nil {
		return nil, err
	}
	return listFiles(root)
}

func listFiles(root string) ([]string, error) {
	files := []string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("파일 목록 조회 실패: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// resolve는 상대 경로를 프로젝트 디렉토리 안의 절대 경로로 변환합니다.
func (m *manager) resolve(projectID int64, relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if clean == "." || !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, relPath)
	}
	root, err := m.PathFor(projectID)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, clean), nil
}

// ReadFile implements Manager.
func (m *manager) ReadFile(projectID int64, relPath string) (string, error) {
	target, err := m.resolve(projectID, relPath)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("파일 읽기 실패 (%s): %w", relPath, err)
	}
	return string(data), nil
}

// WriteFile implements Manager.
func (m *manager) WriteFile(projectID int64, relPath, content string) error {
	target, err := m.resolve(projectID, relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("디렉토리 생성 실패: %w", err)
	}
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return fmt.Errorf("파일 쓰기 실패 (%s): %w", relPath, err)
	}
	return nil
}

// ReadTree implements Manager.
func (m *manager) ReadTree(projectID int64) (map[string]string, error) {
	files, err := m.ListFiles(projectID)
	if err != nil {
		return nil, err
	}

	tree := make(map[string]string, len(files))
	for _, rel := range files {
		content, err := m.ReadFile(projectID, rel)
		if err != nil {
			return nil, err
		}
		tree[rel] = content
	}
	return tree, nil
}

// RestoreTree implements Manager.
func (m *manager) RestoreTree(projectID int64, files map[string]string) error {
	current, err := m.ListFiles(projectID)
	if err != nil {
		return err
	}

	for _, rel := range current {
		if _, keep := files[rel]; keep {
			continue
		}
		target, err := m.resolve(projectID, rel)
		if err != nil {
			return err
		}
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("파일 삭제 실패 (%s): %w", rel, err)
		}
	}

	for rel, content := range files {
		if err := m.WriteFile(projectID, rel, content); err != nil {
			return err
		}
	}
	return nil
}

// Remove implements Manager.
func (m *manager) Remove(projectID int64) error {
	path := filepath.Join(m.config.ProjectsDir, ProjectDirName(projectID))
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("프로젝트 디렉토리 삭제 실패: %w", err)
	}
	m.logger.Info("프로젝트 디렉토리 삭제됨", zap.Int64("project_id", projectID))
	return nil
}

// Templates implements Manager.
func (m *manager) Templates() ([]string, error) {
	entries, err := os.ReadDir(m.config.TemplatesDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("템플릿 디렉토리 읽기 실패: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// 인터페이스 구현 확인
var _ Manager = (*manager)(nil)
