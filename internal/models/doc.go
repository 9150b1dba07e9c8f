// Package models defines the data shared by the player card, the configuration editor and the host adapters.
//
// The package contains three groups of types:
//
// 1. Card configuration, owned by the host and replaced wholesale on every edit
//   - [Station] : a named stream URL that can be dragged onto a player
//   - [PlayerRef] : a Home Assistant media_player entity, with an optional display name override
//   - [CardConfig] : the stations and media_players lists
//
// 2. Card state
//   - [Connections] : the sticky last-dropped station per player
//
// 3. Home Assistant data, read-only to the card
//   - [EntityState] and [Snapshot] : live playback status pushed in by the host
//   - [ServiceCall] : an outbound command
package models
