package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"

	"github.com/yasube/yasube/internal/common/logging"
)

const (
	DefaultBasepath = "~"
	DefaultFilename = "yasube_results.json"
)

// Sink receives one record per scenario run.
type Sink interface {
	Write(r Record) error
}

// FileSink merges records into the "testResults" array of a JSON results file. Records already in the file
// are kept untouched, including ones it cannot decode.
type FileSink struct {
	path       string
	checkpoint bool
	mu         sync.Mutex
	logger     *logging.Logger
}

// NewFileSink resolves basepath/filename, expanding a leading ~. Without checkpointing records are only
// logged.
func NewFileSink(basepath, filename string, checkpoint bool) (*FileSink, error) {
	if basepath == "" {
		basepath = DefaultBasepath
	}
	if filename == "" {
		filename = DefaultFilename
	}
	dir, err := homedir.Expand(basepath)
	if err != nil {
		return nil, errors.Wrapf(err, "expanding result basepath %q", basepath)
	}
	path := filepath.Join(dir, filename)
	return &FileSink{
		path:       path,
		checkpoint: checkpoint,
		logger:     logging.WithField("path", path),
	}, nil
}

func (s *FileSink) Path() string {
	return s.path
}

type resultsFile struct {
	TestResults []json.RawMessage `json:"testResults"`
}

func (s *FileSink) Write(r Record) error {
	encoded, err := json.Marshal(r)
	if err != nil {
		return errors.WithStack(err)
	}
	if !s.checkpoint {
		s.logger.WithField("record", string(encoded)).Info("Checkpointing disabled, not writing results")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var results resultsFile
	existing, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return errors.Wrapf(err, "reading results file %s", s.path)
	case len(bytes.TrimSpace(existing)) > 0:
		if err := json.Unmarshal(existing, &results); err != nil {
			return errors.Wrapf(err, "results file %s is not a results document", s.path)
		}
	}
	results.TestResults = append(results.TestResults, encoded)

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := writeFileAtomic(s.path, out); err != nil {
		return err
	}
	s.logger.WithField("testName", r.TestName).Infof("Wrote results to %s", s.path)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.WithStack(err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(tmp.Name(), path))
}

// MemorySink keeps records in memory.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
	// Err, when set, is returned by every Write.
	Err error
}

func (s *MemorySink) Write(r Record) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
