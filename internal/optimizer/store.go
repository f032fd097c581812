package optimizer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/regime"
)

// Snapshot is the persisted optimizer state: the current best
// parameters per regime plus an integrity hash over them.
type Snapshot struct {
	Params    map[regime.Regime]ParamSet `json:"params"`
	UpdatedAt time.Time                  `json:"updated_at"`
	Hash      string                     `json:"hash"`
}

// ParamStore persists optimized parameters to a single JSON file.
// Writes go to a temp file and are atomically renamed into place; the
// hash is an integrity check on load, not a durability mechanism.
type ParamStore struct {
	path   string
	logger zerolog.Logger
}

// Open prepares a store at path, creating the parent directory.
func Open(path string, logger zerolog.Logger) (*ParamStore, error) {
	if path == "" {
		return nil, fmt.Errorf("optimizer: store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("optimizer: create store directory: %w", err)
	}
	return &ParamStore{
		path:   path,
		logger: logger.With().Str("component", "ParamStore").Logger(),
	}, nil
}

// Persist writes the parameter map durably.
func (s *ParamStore) Persist(params map[regime.Regime]ParamSet) error {
	snap := Snapshot{
		Params:    params,
		UpdatedAt: time.Now().UTC(),
		Hash:      hashParams(params),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("optimizer: marshal snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("optimizer: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("optimizer: replace snapshot: %w", err)
	}
	s.logger.Info().Str("path", s.path).Msg("Parameters persisted")
	return nil
}

// LoadOrRecover reads the persisted parameters. A missing file or a
// corrupted one (bad JSON, hash mismatch) recovers to defaults for all
// regimes rather than failing the caller.
func (s *ParamStore) LoadOrRecover() (map[regime.Regime]ParamSet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.recover("no snapshot on disk"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("optimizer: read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return s.recover("snapshot is not valid JSON"), nil
	}
	if snap.Hash != hashParams(snap.Params) {
		return s.recover("snapshot hash mismatch"), nil
	}
	return snap.Params, nil
}

func (s *ParamStore) recover(reason string) map[regime.Regime]ParamSet {
	s.logger.Warn().Str("reason", reason).Msg("Recovering default parameters")
	return map[regime.Regime]ParamSet{
		regime.Bull:     DefaultParams(),
		regime.Bear:     DefaultParams(),
		regime.Sideways: DefaultParams(),
	}
}

// hashParams hashes the canonical JSON of the parameter map. Map keys
// marshal in sorted order, so the encoding is deterministic.
func hashParams(params map[regime.Regime]ParamSet) string {
	data, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
