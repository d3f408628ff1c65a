// Package save implements JSON serialization and deserialization of a
// group's world.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/nathoo/dpcq/engine/world"
)

// Version is written into every blob. Older blobs still load; missing
// fields take their zero or empty defaults.
const Version = 1

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version int          `json:"version"`
	World   *world.World `json:"world"`
}

// Save serializes a world to JSON bytes.
func Save(w *world.World) ([]byte, error) {
	return json.Marshal(SaveData{Version: Version, World: w})
}

// Load deserializes JSON bytes into a usable world for groupID.
func Load(groupID string, data []byte) (*world.World, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("decode world %s: %w", groupID, err)
	}
	if sd.Version > Version {
		return nil, fmt.Errorf("decode world %s: save version %d is newer than %d", groupID, sd.Version, Version)
	}
	w := sd.World
	if w == nil {
		w = world.New(groupID)
	}
	if w.GroupID == "" {
		w.GroupID = groupID
	}
	// Ensure maps are never nil after load.
	w.Normalize()
	return w, nil
}
