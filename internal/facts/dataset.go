package facts

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile reads a JSON dataset file. Records are kept in file order.
func LoadFile(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset %s: %w", path, err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return ds, nil
}
