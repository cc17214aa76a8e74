package storage

import (
	"os"
	"time"

	json "github.com/goccy/go-json"

	"coronabot/internal/errs"
	"coronabot/internal/models"
	"coronabot/internal/providers"
	"coronabot/internal/structures"
)

// Store is the file-backed key/value store shared by the command surface
// and the feed reconciler. It holds the whole document in memory; Pull and
// Push replace it wholesale, so readers never observe a partial write.
// Callers serialize access through the TimedMutex; the Store itself does
// no locking.
type Store struct {
	path    string
	doc     *models.Document
	archive *Archive
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewStore(conf *structures.Config, archive *Archive, logger providers.Logger, metrics providers.MetricsProviderInterface) *Store {
	return &Store{
		path:    conf.Persistence.FilePath,
		doc:     models.NewDocument(),
		archive: archive,
		logger:  logger,
		metrics: metrics,
	}
}

// Document exposes the in-memory document for read paths that already ran
// Pull under the lock.
func (s *Store) Document() *models.Document {
	return s.doc
}

// Pull reloads the document from disk. A missing file is not an error: an
// empty document is synthesized and persisted. A file that fails to parse
// falls back to the newest archive snapshot before giving up.
func (s *Store) Pull() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.doc = models.NewDocument()
			return s.Push()
		}
		return errs.Wrap(errs.IOFailure, "failed to read store file", err)
	}

	var content map[string]any
	if err := json.Unmarshal(raw, &content); err != nil {
		s.logger.Errorf(providers.TypeApp, "Store file %s is unreadable (%s), trying archive", s.path, err)
		snapshot, archErr := s.archive.Latest()
		if archErr != nil || snapshot == nil {
			return errs.Wrap(errs.IOFailure, "failed to parse store file", err)
		}
		if err := json.Unmarshal(snapshot, &content); err != nil {
			return errs.Wrap(errs.IOFailure, "failed to parse archived snapshot", err)
		}
		s.logger.Warnf(providers.TypeApp, "Restored store content from archive snapshot")
	}

	s.doc = models.Decode(content)
	return nil
}

// Push validates and persists the in-memory document. The write goes to a
// temp file that is fsynced and renamed over the target, so a crash leaves
// either the old or the new document, never a torn one.
func (s *Store) Push() error {
	start := time.Now()

	encoded, err := models.Encode(s.doc)
	if err != nil {
		if errs.KindOf(err) == errs.CircularReference {
			return err
		}
		return errs.Wrap(errs.IOFailure, "failed to encode store document", err)
	}

	data, err := json.Marshal(encoded)
	if err != nil {
		return errs.Wrap(errs.IOFailure, "failed to marshal store document", err)
	}

	if err := s.writeAtomic(data); err != nil {
		return errs.Wrap(errs.IOFailure, "failed to write store file", err)
	}

	s.metrics.ObservePersistenceDuration(time.Since(start))

	if err := s.archive.Snapshot(data); err != nil {
		s.logger.Warnf(providers.TypeApp, "Failed to archive store snapshot: %s", err)
	}
	return nil
}

func (s *Store) writeAtomic(data []byte) error {
	tmpFile := s.path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, s.path)
}

// Fetch pulls the latest document and returns the value under key.
func (s *Store) Fetch(key string) (any, error) {
	if err := s.Pull(); err != nil {
		return nil, err
	}
	val, ok := s.doc.Get(key)
	if !ok {
		return nil, errs.New(errs.NotFound, "key not found: "+key)
	}
	return val, nil
}

// FetchOr pulls the latest document and returns the value under key, or
// def when the key is absent.
func (s *Store) FetchOr(key string, def any) (any, error) {
	if err := s.Pull(); err != nil {
		return nil, err
	}
	if val, ok := s.doc.Get(key); ok {
		return val, nil
	}
	return def, nil
}

// FetchOrInit pulls the latest document and returns the value under key,
// creating and persisting it with def when absent.
func (s *Store) FetchOrInit(key string, def any) (any, error) {
	if err := s.Pull(); err != nil {
		return nil, err
	}
	if val, ok := s.doc.Get(key); ok {
		return val, nil
	}
	if err := s.AssignAndPersist(key, def); err != nil {
		return nil, err
	}
	return def, nil
}

// AssignAndPersist sets key to val and pushes the whole document.
func (s *Store) AssignAndPersist(key string, val any) error {
	s.doc.Set(key, val)
	return s.Push()
}
