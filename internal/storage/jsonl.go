package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"walletclinic/internal/model"
)

// JsonlStorage appends reports and failures to JSONL files.
type JsonlStorage struct {
	path       string
	errorsPath string
	mu         sync.Mutex
}

// NewJsonlStorage writes reports to path and failures to errorsPath. An empty
// errorsPath drops failures.
func NewJsonlStorage(path, errorsPath string) *JsonlStorage {
	return &JsonlStorage{path: path, errorsPath: errorsPath}
}

// PutReports appends a batch of reports as JSON lines.
func (s *JsonlStorage) PutReports(reports []model.SummaryReport) error {
	items := make([]any, len(reports))
	for i := range reports {
		items[i] = reports[i]
	}
	return s.appendLines(s.path, items)
}

// PutFailures appends a batch of failures as JSON lines.
func (s *JsonlStorage) PutFailures(failures []model.BatchFailure) error {
	if s.errorsPath == "" {
		return nil
	}
	items := make([]any, len(failures))
	for i := range failures {
		items[i] = failures[i]
	}
	return s.appendLines(s.errorsPath, items)
}

func (s *JsonlStorage) appendLines(path string, items []any) error {
	if len(items) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
