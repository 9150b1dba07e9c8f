// package models defines the data model for the web radio player card
package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/webradio/internal/shared"
	"gopkg.in/yaml.v3"
)

// DefaultStorageKey is the key the connection map is persisted under.
const DefaultStorageKey = "webRadioPlayerCardConnections"

// Station is a named streaming URL.
type Station struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// PlayerRef names a media_player entity, optionally with a display name override.
//
// It decodes from either a bare entity id string or a {entity_id, name} record.
type PlayerRef struct {
	EntityID string `json:"entity_id" yaml:"entity_id"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
}

type playerRecord PlayerRef

// UnmarshalJSON accepts "media_player.x" or {"entity_id": "media_player.x", "name": "..."}.
func (p *PlayerRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*p = PlayerRef{EntityID: id}
		return nil
	}

	var rec playerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("media player must be an entity id or a record: %w", err)
	}
	*p = PlayerRef(rec)
	return nil
}

// UnmarshalYAML accepts a scalar entity id or a mapping with entity_id and name.
func (p *PlayerRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*p = PlayerRef{EntityID: value.Value}
		return nil
	case yaml.MappingNode:
		var rec playerRecord
		if err := value.Decode(&rec); err != nil {
			return err
		}
		*p = PlayerRef(rec)
		return nil
	default:
		return fmt.Errorf("line %d: media player must be an entity id or a mapping", value.Line)
	}
}

// CardConfig is the card's configuration as authored in the dashboard.
type CardConfig struct {
	Stations     []Station   `json:"stations" yaml:"stations"`
	MediaPlayers []PlayerRef `json:"media_players" yaml:"media_players"`
}

type cardRecord CardConfig

// UnmarshalYAML rejects null media_players items, which yaml would otherwise skip without calling [PlayerRef.UnmarshalYAML].
func (c *CardConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, list := value.Content[i], value.Content[i+1]
			if key.Value != "media_players" || list.Kind != yaml.SequenceNode {
				continue
			}
			for j, item := range list.Content {
				if item.ShortTag() == "!!null" {
					return fmt.Errorf("%w: media_players[%d] must have an entity_id", shared.ErrInvalidConfig, j)
				}
			}
		}
	}

	var rec cardRecord
	if err := value.Decode(&rec); err != nil {
		return err
	}
	*c = CardConfig(rec)
	return nil
}

// Validate rejects configurations the card cannot render.
func (c CardConfig) Validate() error {
	if c.Stations == nil {
		return fmt.Errorf("%w: stations[] must be defined", shared.ErrInvalidConfig)
	}
	if c.MediaPlayers == nil {
		return fmt.Errorf("%w: media_players[] must be defined", shared.ErrInvalidConfig)
	}
	for i, mp := range c.MediaPlayers {
		if strings.TrimSpace(mp.EntityID) == "" {
			return fmt.Errorf("%w: media_players[%d] must have an entity_id", shared.ErrInvalidConfig, i)
		}
	}
	return nil
}

// Clone returns a deep copy. Nil lists stay nil so Validate sees the same shape.
func (c CardConfig) Clone() CardConfig {
	out := CardConfig{}
	if c.Stations != nil {
		out.Stations = append(make([]Station, 0, len(c.Stations)), c.Stations...)
	}
	if c.MediaPlayers != nil {
		out.MediaPlayers = append(make([]PlayerRef, 0, len(c.MediaPlayers)), c.MediaPlayers...)
	}
	return out
}

// Player returns the configured reference for entityID.
func (c CardConfig) Player(entityID string) (PlayerRef, bool) {
	for _, mp := range c.MediaPlayers {
		if mp.EntityID == entityID {
			return mp, true
		}
	}
	return PlayerRef{}, false
}

// Station returns the first station with the given name.
func (c CardConfig) Station(name string) (Station, bool) {
	for _, st := range c.Stations {
		if st.Name == name {
			return st, true
		}
	}
	return Station{}, false
}

// StubConfig is the example configuration offered on first-time setup.
func StubConfig() CardConfig {
	return CardConfig{
		Stations: []Station{
			{Name: "Willy", URL: "https://streams.radio.dpgmedia.cloud/redirect/willy_be/mp3"},
		},
		MediaPlayers: []PlayerRef{{EntityID: "media_player.living_room"}},
	}
}

// Connections maps a player entity id to the station last dropped onto it.
type Connections map[string]Station

// Clone returns an independent copy.
func (c Connections) Clone() Connections {
	out := make(Connections, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// ParseConnections decodes a persisted connection map. Empty input yields an empty map.
func ParseConnections(raw string) (Connections, error) {
	out := Connections{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Connections{}, err
	}
	if out == nil {
		// "null" decodes to a nil map
		out = Connections{}
	}
	return out, nil
}

// Encode serialises the map for storage.
func (c Connections) Encode() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
