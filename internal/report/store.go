package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/ternarybob/arbor"

	"github.com/nbenliogludev/boardbot-e2e/internal/common"
)

// DefaultRetention is how many report files survive a Prune.
const DefaultRetention = 100

// Store persists reports under one directory.
type Store struct {
	Dir    string
	logger arbor.ILogger
}

func NewStore(dir string, logger arbor.ILogger) *Store {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &Store{Dir: dir, logger: logger}
}

// FileStamp is an ISO-8601 UTC timestamp with ':' and '.' replaced by '-'.
func FileStamp(t time.Time) string {
	iso := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}

// FileName is the report file name for testID at t.
func FileName(testID string, t time.Time) string {
	return fmt.Sprintf("%s_%s.md", testID, FileStamp(t))
}

// Save writes the Markdown report and returns its path.
func (s *Store) Save(testID string, r TestReport, now time.Time) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	path := filepath.Join(s.Dir, FileName(testID, now))
	if err := os.WriteFile(path, []byte(FormatMarkdown(r)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("Report saved")
	return path, nil
}

type reportFile struct {
	name    string
	modTime time.Time
}

// Prune keeps the newest keep .md/.json files by modification time and
// deletes the rest. It returns the deleted names, oldest last.
func (s *Store) Prune(keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("retention must not be negative, got %d", keep)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read reports dir: %w", err)
	}

	reports := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		name := e.Name()
		return !e.IsDir() && (strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".json"))
	})

	files := make([]reportFile, 0, len(reports))
	for _, e := range reports {
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, reportFile{name: e.Name(), modTime: info.ModTime()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].name > files[j].name
		}
		return files[i].modTime.After(files[j].modTime)
	})

	if len(files) <= keep {
		s.logger.Info().Msgf("Current reports: %d (will keep up to %d)", len(files), keep)
		return nil, nil
	}

	s.logger.Info().Msgf("Keeping latest %d reports, removing %d old reports", keep, len(files)-keep)

	var deleted []string
	for _, f := range files[keep:] {
		if err := os.Remove(filepath.Join(s.Dir, f.name)); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return deleted, fmt.Errorf("delete %s: %w", f.name, err)
		}
		s.logger.Debug().Str("file", f.name).Msg("Deleted old report")
		deleted = append(deleted, f.name)
	}
	return deleted, nil
}

// Clear empties each directory, leaving the directory itself. Missing
// directories are skipped.
func Clear(logger arbor.ILogger, dirs ...string) error {
	if logger == nil {
		logger = common.NopLogger()
	}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			logger.Info().Str("dir", dir).Msg("Directory doesn't exist yet")
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", dir, err)
		}
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
				return fmt.Errorf("remove %s: %w", e.Name(), err)
			}
		}
		logger.Info().Str("dir", dir).Int("entries", len(entries)).Msg("Cleared directory")
	}
	return nil
}
