package models

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrNotDownloaded - модель из реестра не скачана.
var ErrNotDownloaded = errors.New("модель не скачана")

// Progress информация о прогрессе загрузки.
type Progress struct {
	ModelID    string
	Downloaded int64
	Total      int64
	Done       bool
}

// Manager управляет моделями в одной директории.
type Manager struct {
	modelsDir  string
	httpClient *http.Client
	mu         sync.Mutex
}

// NewManager создаёт менеджер моделей. Пустой dir - models/ рядом с бинарником.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		execPath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("не удалось определить путь к бинарнику: %w", err)
		}
		execPath, err = filepath.EvalSymlinks(execPath)
		if err != nil {
			return nil, fmt.Errorf("не удалось разрешить симлинки: %w", err)
		}
		dir = filepath.Join(filepath.Dir(execPath), "models")
	}

	for _, engine := range []Engine{EngineVosk, EngineWhisper} {
		if err := os.MkdirAll(filepath.Join(dir, string(engine)), 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", engine, err)
		}
	}

	return &Manager{modelsDir: dir, httpClient: http.DefaultClient}, nil
}

// ModelsDir возвращает путь к директории моделей.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// Path возвращает полный путь к модели.
func (m *Manager) Path(info ModelInfo) string {
	return filepath.Join(m.modelsDir, string(info.Engine), info.Filename)
}

// IsDownloaded проверяет, скачана ли модель.
func (m *Manager) IsDownloaded(info ModelInfo) bool {
	stat, err := os.Stat(m.Path(info))
	if err != nil {
		return false
	}

	// Vosk модель - директория
	if info.IsZip {
		return stat.IsDir()
	}
	return stat.Size() > 0
}

// Resolve возвращает путь к модели. explicitPath имеет приоритет над id.
func (m *Manager) Resolve(id, explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("модель %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}

	info, ok := Lookup(id)
	if !ok {
		return "", fmt.Errorf("неизвестная модель: %s", id)
	}
	if !m.IsDownloaded(info) {
		return "", fmt.Errorf("%w: %s (golos -download %s)", ErrNotDownloaded, id, id)
	}
	return m.Path(info), nil
}

// Download скачивает модель. onProgress может быть nil.
func (m *Manager) Download(ctx context.Context, info ModelInfo, onProgress func(Progress)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	if m.IsDownloaded(info) {
		report(Progress{ModelID: info.ID, Downloaded: info.Size, Total: info.Size, Done: true})
		return nil
	}

	tmp, err := os.CreateTemp(m.modelsDir, info.ID+"-*.part")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	total, err := m.fetch(ctx, info, tmp, report)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	if info.IsZip {
		if err := unzip(tmpPath, filepath.Dir(m.Path(info))); err != nil {
			return fmt.Errorf("ошибка распаковки: %w", err)
		}
		if !m.IsDownloaded(info) {
			return fmt.Errorf("архив не содержит %s", info.Filename)
		}
	} else if err := os.Rename(tmpPath, m.Path(info)); err != nil {
		return err
	}

	log.Info().Str("model", info.ID).Str("path", m.Path(info)).Msg("Модель скачана")
	report(Progress{ModelID: info.ID, Downloaded: total, Total: total, Done: true})
	return nil
}

func (m *Manager) fetch(ctx context.Context, info ModelInfo, w io.Writer, report func(Progress)) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ошибка скачивания: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP ошибка: %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return downloaded, werr
			}
			downloaded += int64(n)
			report(Progress{ModelID: info.ID, Downloaded: downloaded, Total: total})
		}
		if errors.Is(err, io.EOF) {
			return downloaded, nil
		}
		if err != nil {
			return downloaded, err
		}
	}
}

func unzip(src, destDir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	root := filepath.Clean(destDir) + string(os.PathSeparator)
	for _, f := range r.File {
		fpath := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(fpath, root) {
			return fmt.Errorf("недопустимый путь в архиве: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
			return err
		}
		if err := extract(f, fpath); err != nil {
			return err
		}
	}

	return nil
}

func extract(f *zip.File, fpath string) error {
	out, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(out, rc)
	return err
}
