package workspace

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed templates
var bundled embed.FS

// BundledTemplates는 바이너리에 포함된 템플릿 이름입니다.
var BundledTemplates = []string{"game", "python_script", "web_app"}

// InstallTemplates는 내장 템플릿을 dir에 풀어 놓습니다. 이미 있는 파일은 덮어쓰지 않습니다.
// 새로 쓴 파일 수를 반환합니다.
func InstallTemplates(dir string) (int, error) {
	written := 0
	err := fs.WalkDir(bundled, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel("templates", filepath.FromSlash(path))
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if _, err := os.Stat(target); err == nil {
			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		data, err := bundled.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return err
		}
		written++
		return nil
	})
	if err != nil {
		return written, fmt.Errorf("템플릿 설치 실패: %w", err)
	}
	return written, nil
}
