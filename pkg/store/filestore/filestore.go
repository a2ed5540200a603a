package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/getzep/textlab/internal"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/store"
)

var log = internal.GetLogger()

const (
	artifactExt    = ".msgpack"
	activeFileName = "active.json"
)

// Force compiler to validate that FileStore implements the ArtifactStore interface.
var _ models.ArtifactStore = &FileStore{}

var _ models.ArtifactVersioner = &FileStore{}

// FileStore keeps one msgpack file per (task, algorithm) under Root:
//
//	<root>/<task>/<algorithm>.msgpack
//	<root>/<task>/active.json
//
// Writes go to a temp file in the same directory and are renamed into place, so readers see
// either the old or the new artifact, never a partial one.
type FileStore struct {
	Root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore returns a FileStore rooted at root, creating the directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, store.NewStorageError("failed to create artifact directory", err)
	}
	return &FileStore{Root: root, locks: make(map[string]*sync.Mutex)}, nil
}

// lock returns the mutex serializing writers of key.
func (st *FileStore) lock(key string) *sync.Mutex {
	st.mu.Lock()
	defer st.mu.Unlock()
	l, ok := st.locks[key]
	if !ok {
		l = &sync.Mutex{}
		st.locks[key] = l
	}
	return l
}

func validateTaskID(taskID string) error {
	if taskID == "" || taskID == "." || taskID == ".." ||
		strings.ContainsAny(taskID, `/\`) || filepath.Base(taskID) != taskID {
		return models.NewValidationError("invalid task id: %q", taskID)
	}
	return nil
}

func (st *FileStore) taskDir(taskID string) string {
	return filepath.Join(st.Root, taskID)
}

func (st *FileStore) artifactPath(taskID string, algorithm models.Algorithm) string {
	return filepath.Join(st.taskDir(taskID), string(algorithm)+artifactExt)
}

func (st *FileStore) Save(ctx context.Context, artifact *models.ModelArtifact) error {
	if artifact == nil {
		return store.NewStorageError("nil artifact", nil)
	}
	if err := validateTaskID(artifact.TaskID); err != nil {
		return err
	}
	b, err := store.EncodeArtifact(artifact)
	if err != nil {
		return err
	}

	l := st.lock(artifact.TaskID + "/" + string(artifact.Algorithm))
	l.Lock()
	err = writeAtomic(st.artifactPath(artifact.TaskID, artifact.Algorithm), b)
	l.Unlock()
	if err != nil {
		return store.NewStorageError("failed to write artifact", err)
	}

	log.Debugf("saved %s artifact for task %s (%d bytes)", artifact.Algorithm, artifact.TaskID, len(b))

	// the first artifact of a task becomes active
	tl := st.lock(artifact.TaskID)
	tl.Lock()
	defer tl.Unlock()
	if _, err := st.readActive(artifact.TaskID); errors.Is(err, models.ErrNotTrained) {
		return st.writeActive(artifact.TaskID, artifact.Algorithm)
	} else if err != nil {
		return err
	}
	return nil
}

func (st *FileStore) Load(
	ctx context.Context,
	taskID string,
	algorithm models.Algorithm,
) (*models.ModelArtifact, error) {
	if err := validateTaskID(taskID); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(st.artifactPath(taskID, algorithm))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.NewNotTrainedError(taskID, algorithm)
		}
		return nil, store.NewStorageError("failed to read artifact", err)
	}
	return store.DecodeArtifact(b)
}

// Version identifies the artifact file currently stored under the key. Saves rename a fresh
// file into place, so every save yields a new version.
func (st *FileStore) Version(
	_ context.Context,
	taskID string,
	algorithm models.Algorithm,
) (string, error) {
	if err := validateTaskID(taskID); err != nil {
		return "", err
	}
	info, err := os.Stat(st.artifactPath(taskID, algorithm))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", models.NewNotTrainedError(taskID, algorithm)
		}
		return "", store.NewStorageError("failed to stat artifact", err)
	}
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size()), nil
}

// Delete removes an artifact. When the active artifact is deleted, the most recently trained
// remaining artifact of the task becomes active.
func (st *FileStore) Delete(ctx context.Context, taskID string, algorithm models.Algorithm) error {
	if err := validateTaskID(taskID); err != nil {
		return err
	}
	l := st.lock(taskID + "/" + string(algorithm))
	l.Lock()
	err := os.Remove(st.artifactPath(taskID, algorithm))
	l.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.NewNotTrainedError(taskID, algorithm)
		}
		return store.NewStorageError("failed to delete artifact", err)
	}

	tl := st.lock(taskID)
	tl.Lock()
	defer tl.Unlock()

	active, err := st.readActive(taskID)
	if err != nil || active != algorithm {
		return nil
	}
	summaries, err := st.List(ctx, taskID)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		if err := os.Remove(filepath.Join(st.taskDir(taskID), activeFileName)); err != nil &&
			!errors.Is(err, os.ErrNotExist) {
			return store.NewStorageError("failed to clear active model", err)
		}
		return nil
	}
	latest := summaries[0]
	for _, s := range summaries[1:] {
		if s.TrainedAt.After(latest.TrainedAt) {
			latest = s
		}
	}
	return st.writeActive(taskID, latest.Algorithm)
}

// List returns the task's artifacts in canonical algorithm order.
func (st *FileStore) List(ctx context.Context, taskID string) ([]models.ArtifactSummary, error) {
	if err := validateTaskID(taskID); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(st.taskDir(taskID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.ArtifactSummary{}, nil
		}
		return nil, store.NewStorageError("failed to list artifacts", err)
	}

	active, err := st.readActive(taskID)
	if err != nil && !errors.Is(err, models.ErrNotTrained) {
		return nil, err
	}

	algorithms := make([]models.Algorithm, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), artifactExt) {
			continue
		}
		algorithms = append(algorithms, models.Algorithm(strings.TrimSuffix(e.Name(), artifactExt)))
	}
	models.SortAlgorithms(algorithms)

	summaries := make([]models.ArtifactSummary, 0, len(algorithms))
	for _, a := range algorithms {
		b, err := os.ReadFile(st.artifactPath(taskID, a))
		if err != nil {
			// deleted between ReadDir and ReadFile
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, store.NewStorageError("failed to read artifact", err)
		}
		artifact, err := store.DecodeArtifact(b)
		if err != nil {
			log.Warnf("skipping unreadable artifact %s/%s: %v", taskID, a, err)
			continue
		}
		s := artifact.Summary(a == active)
		s.SizeBytes = len(b)
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (st *FileStore) SetActive(ctx context.Context, taskID string, algorithm models.Algorithm) error {
	if err := validateTaskID(taskID); err != nil {
		return err
	}
	if _, err := os.Stat(st.artifactPath(taskID, algorithm)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.NewNotTrainedError(taskID, algorithm)
		}
		return store.NewStorageError("failed to stat artifact", err)
	}
	tl := st.lock(taskID)
	tl.Lock()
	defer tl.Unlock()
	return st.writeActive(taskID, algorithm)
}

func (st *FileStore) Active(ctx context.Context, taskID string) (models.Algorithm, error) {
	if err := validateTaskID(taskID); err != nil {
		return "", err
	}
	return st.readActive(taskID)
}

func (st *FileStore) Close() error {
	return nil
}

type activeFile struct {
	Algorithm models.Algorithm `json:"algorithm"`
}

func (st *FileStore) readActive(taskID string) (models.Algorithm, error) {
	b, err := os.ReadFile(filepath.Join(st.taskDir(taskID), activeFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", models.NewNotTrainedError(taskID, "")
		}
		return "", store.NewStorageError("failed to read active model", err)
	}
	var af activeFile
	if err := json.Unmarshal(b, &af); err != nil {
		return "", store.NewStorageError("failed to decode active model", err)
	}
	return af.Algorithm, nil
}

func (st *FileStore) writeActive(taskID string, algorithm models.Algorithm) error {
	b, err := json.Marshal(activeFile{Algorithm: algorithm})
	if err != nil {
		return store.NewStorageError("failed to encode active model", err)
	}
	if err := writeAtomic(filepath.Join(st.taskDir(taskID), activeFileName), b); err != nil {
		return store.NewStorageError("failed to write active model", err)
	}
	return nil
}

// writeAtomic writes b to a temp file next to path and renames it over path.
func writeAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmp)
	}()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
