// audit/repository.go
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Repository interface {
	Append(ctx context.Context, record Record) error
	Query(ctx context.Context, from, to time.Time, userID string) ([]Record, error)
}

// FileRepository appends records to a JSONL file, one action per
// line. Append-only keeps a crash from corrupting earlier entries.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) Append(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = file.Write(append(data, '\n'))
	return err
}

func (r *FileRepository) Query(_ context.Context, from, to time.Time, userID string) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			// A torn final line from a crash is skipped, not fatal.
			continue
		}
		if !from.IsZero() && record.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && record.Timestamp.After(to) {
			continue
		}
		if userID != "" && record.UserID != userID {
			continue
		}
		records = append(records, record)
	}
	return records, scanner.Err()
}
