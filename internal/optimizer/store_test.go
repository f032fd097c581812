package optimizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/regime"
)

func TestParamStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params", "best.json")
	store, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	params := map[regime.Regime]ParamSet{
		regime.Bull:     {RenkoK: 1.5, RegimeLookback: 10, MaxHoldMinutes: 30, ATRMultiple: 2.5},
		regime.Bear:     DefaultParams(),
		regime.Sideways: DefaultParams(),
	}
	if err := store.Persist(params); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadOrRecover()
	if err != nil {
		t.Fatal(err)
	}
	if loaded[regime.Bull] != params[regime.Bull] {
		t.Errorf("Loaded bull params = %+v, want %+v", loaded[regime.Bull], params[regime.Bull])
	}
}

func TestParamStoreMissingFileRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nothing.json")
	store, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := store.LoadOrRecover()
	if err != nil {
		t.Fatal(err)
	}
	if loaded[regime.Bull] != DefaultParams() {
		t.Errorf("Expected defaults after recovery, got %+v", loaded[regime.Bull])
	}
}

func TestParamStoreCorruptFileRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.json")
	store, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.LoadOrRecover()
	if err != nil {
		t.Fatal(err)
	}
	if loaded[regime.Sideways] != DefaultParams() {
		t.Errorf("Expected defaults for corrupt snapshot, got %+v", loaded[regime.Sideways])
	}
}

func TestParamStoreHashMismatchRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.json")
	store, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	params := map[regime.Regime]ParamSet{regime.Bull: {RenkoK: 1.5}}
	if err := store.Persist(params); err != nil {
		t.Fatal(err)
	}

	// Tamper with the payload so the stored hash no longer matches.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tampered := []byte(string(data))
	for i := range tampered {
		if tampered[i] == '1' {
			tampered[i] = '2'
			break
		}
	}
	if err := os.WriteFile(path, tampered, 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadOrRecover()
	if err != nil {
		t.Fatal(err)
	}
	if loaded[regime.Bull] != DefaultParams() {
		t.Errorf("Expected defaults after hash mismatch, got %+v", loaded[regime.Bull])
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("", zerolog.Nop()); err == nil {
		t.Error("Expected error for empty store path")
	}
}
