package ar

import "path/filepath"

// HiveStore is the Akashic Record analog keyed by hive_id rather than
// run_id, rooted at <vault>/hives. Its contract is identical to Store;
// it is a distinct type only so callers cannot accidentally address a
// hive stream through a run-keyed Store or vice versa.
type HiveStore struct {
	*Store
}

// NewHiveStore returns a HiveStore rooted at <vaultRoot>/hives.
func NewHiveStore(vaultRoot string) (*HiveStore, error) {
	s, err := New(filepath.Join(vaultRoot, "hives"), nil)
	if err != nil {
		return nil, err
	}
	return &HiveStore{Store: s}, nil
}
