// Package roster loads the owner pool the provisioner draws from.
package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrEmptyRoster = errors.New("roster contains no owners")

type entry struct {
	Name string `json:"name"`
}

type document struct {
	Results []entry `json:"results"`
}

// Load reads the roster file ({"results": [{"name": ...}, ...]}) and returns
// the owner names, blanks dropped.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	var doc document
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode roster %s: %w", path, err)
	}

	owners := make([]string, 0, len(doc.Results))
	for _, e := range doc.Results {
		if e.Name == "" {
			continue
		}
		owners = append(owners, e.Name)
	}

	if len(owners) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRoster, path)
	}
	return owners, nil
}
