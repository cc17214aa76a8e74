package storage

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"coronabot/internal/providers"
	"coronabot/internal/structures"
)

const snapshotExt = ".json.zst"

// Archive keeps rotating zstd-compressed copies of the store document next
// to the live file. A recovery aid for a corrupted or fat-fingered store
// file, never a second source of truth.
type Archive struct {
	dir        string
	ttl        time.Duration
	compressor CompressorInterface
	logger     providers.Logger
	enabled    bool
}

func NewArchive(conf *structures.Config, compressor CompressorInterface, logger providers.Logger) *Archive {
	if conf.Persistence.ArchiveDir == "" {
		return &Archive{enabled: false}
	}
	return &Archive{
		dir:        conf.Persistence.ArchiveDir,
		ttl:        conf.Persistence.ArchiveTTL,
		compressor: compressor,
		logger:     logger,
		enabled:    true,
	}
}

// Snapshot compresses and stores one copy of the encoded document, then
// prunes snapshots older than the configured TTL.
func (a *Archive) Snapshot(data []byte) error {
	if !a.enabled {
		return nil
	}

	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return err
	}

	compressed, err := a.compressor.Compress(data)
	if err != nil {
		return err
	}

	name := "corona-" + time.Now().UTC().Format("20060102T150405.000") + snapshotExt
	tmpFile := filepath.Join(a.dir, name+".tmp")
	if err := os.WriteFile(tmpFile, compressed, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpFile, filepath.Join(a.dir, name)); err != nil {
		return err
	}

	a.prune()
	return nil
}

// Latest returns the decompressed content of the newest snapshot, or nil
// when the archive is empty or disabled.
func (a *Archive) Latest() ([]byte, error) {
	if !a.enabled {
		return nil, nil
	}

	files, err := a.snapshots()
	if err != nil || len(files) == 0 {
		return nil, err
	}

	raw, err := os.ReadFile(files[len(files)-1])
	if err != nil {
		return nil, err
	}
	return a.compressor.Decompress(raw)
}

func (a *Archive) snapshots() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(a.dir, "corona-*"+snapshotExt))
	if err != nil {
		return nil, err
	}
	// Timestamped names sort chronologically.
	sort.Strings(files)
	return files, nil
}

func (a *Archive) prune() {
	if a.ttl <= 0 {
		return
	}
	files, err := a.snapshots()
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-a.ttl)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				a.logger.Warnf(providers.TypeApp, "Failed to prune snapshot %s: %s", file, err)
			}
		}
	}
}
