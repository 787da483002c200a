package models

import (
	"encoding/json"
	"fmt"
)

// DecodeConfig unmarshals a node's untyped config map into the runner's
// typed config struct.
func DecodeConfig(config map[string]any, out any) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode node config: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode node config: %w", err)
	}

	return nil
}
