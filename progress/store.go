// progress/store.go
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/identityops/idassign/model"
)

// FileStore persists progress snapshots as JSON files keyed by operation id
// under the per-user state directory, readable by any process that wants to
// report on an in-flight operation.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(operationID string) string {
	return filepath.Join(s.dir, operationID+".json")
}

// Save writes the snapshot atomically (write-then-rename) so concurrent
// readers never observe a torn file.
func (s *FileStore) Save(snapshot model.ProgressSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := s.path(snapshot.OperationID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path(snapshot.OperationID)); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot for an operation id. A missing snapshot is not an
// error; the bool reports presence.
func (s *FileStore) Load(operationID string) (model.ProgressSnapshot, bool, error) {
	data, err := os.ReadFile(s.path(operationID))
	if os.IsNotExist(err) {
		return model.ProgressSnapshot{}, false, nil
	} else if err != nil {
		return model.ProgressSnapshot{}, false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot model.ProgressSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.ProgressSnapshot{}, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snapshot, true, nil
}

// Delete removes the snapshot on clean completion. Deleting a snapshot that
// is already gone is not an error.
func (s *FileStore) Delete(operationID string) error {
	err := os.Remove(s.path(operationID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns every persisted snapshot, for the status command.
func (s *FileStore) List() ([]model.ProgressSnapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var snapshots []model.ProgressSnapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		snapshot, ok, err := s.Load(id)
		if err != nil || !ok {
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}
