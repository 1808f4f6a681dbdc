// Package snapshotstore persists and loads a deployment snapshot
// document to/from disk, zstd-compressed. This is the external
// snapshot-file persistence collaborator named in spec §1: the
// orchestrator never touches this package, the CLI calls it around
// Deploy and Rollback.
package snapshotstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"rollout.sh/internal/compression"
	"rollout.sh/internal/rolloutmodel"
)

// Save zstd-compresses a JSON encoding of snapshot and writes it to path
// atomically (temp file + rename), matching the teacher's state-save
// pattern.
func Save(path string, snapshot rolloutmodel.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	comp, err := compression.NewZstdCompressor(3)
	if err != nil {
		return fmt.Errorf("create compressor: %w", err)
	}
	defer comp.Close()

	packed, err := comp.Compress(raw)
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, packed, 0644); err != nil {
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp snapshot into place: %w", err)
	}
	return nil
}

// Load reads and decompresses a snapshot document written by Save.
func Load(path string) (rolloutmodel.Snapshot, error) {
	packed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}

	comp, err := compression.NewZstdCompressor(3)
	if err != nil {
		return nil, fmt.Errorf("create compressor: %w", err)
	}
	defer comp.Close()

	raw, err := comp.Decompress(packed)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	var snapshot rolloutmodel.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return snapshot, nil
}
