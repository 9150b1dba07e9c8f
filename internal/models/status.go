package models

import "time"

// Playback states reported by Home Assistant media players.
const (
	StatePlaying     = "playing"
	StatePaused      = "paused"
	StateIdle        = "idle"
	StateOff         = "off"
	StateOn          = "on"
	StateUnavailable = "unavailable"
	StateUnknown     = "unknown"
)

// Attributes holds the media_player attributes the card reads.
type Attributes struct {
	FriendlyName  string   `json:"friendly_name,omitempty"`
	VolumeLevel   *float64 `json:"volume_level,omitempty"`
	IsVolumeMuted *bool    `json:"is_volume_muted,omitempty"`
	MediaTitle    string   `json:"media_title,omitempty"`
}

// EntityState is one entity's entry in a Home Assistant state snapshot.
type EntityState struct {
	EntityID    string     `json:"entity_id"`
	State       string     `json:"state"`
	Attributes  Attributes `json:"attributes"`
	LastChanged time.Time  `json:"last_changed"`
}

// Muted reports the mute flag, treating a missing attribute as unmuted.
func (e EntityState) Muted() bool {
	return e.Attributes.IsVolumeMuted != nil && *e.Attributes.IsVolumeMuted
}

// Volume reports the volume level and whether the player exposes one.
func (e EntityState) Volume() (float64, bool) {
	if e.Attributes.VolumeLevel == nil {
		return 0, false
	}
	return *e.Attributes.VolumeLevel, true
}

// Snapshot is the live status keyed by entity id. Treat values as immutable and use With/Without to derive new ones.
type Snapshot map[string]EntityState

// NewSnapshot indexes states by entity id.
func NewSnapshot(states []EntityState) Snapshot {
	s := make(Snapshot, len(states))
	for _, st := range states {
		s[st.EntityID] = st
	}
	return s
}

// Lookup returns the state for entityID.
func (s Snapshot) Lookup(entityID string) (EntityState, bool) {
	st, ok := s[entityID]
	return st, ok
}

// With returns a copy of s with st set.
func (s Snapshot) With(st EntityState) Snapshot {
	out := make(Snapshot, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[st.EntityID] = st
	return out
}

// Without returns a copy of s with entityID removed.
func (s Snapshot) Without(entityID string) Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		if k != entityID {
			out[k] = v
		}
	}
	return out
}

// Float64 and Bool build attribute pointers.
func Float64(v float64) *float64 { return &v }

func Bool(v bool) *bool { return &v }
