// Package ui implements the interactive terminal card using bubbletea's Elm architecture.
//
// The screen shows two columns: stations on the left and media players on the right. With mouse support enabled a
// station is dragged by pressing it, moving over a player and releasing. A quick press on a player selects it, a held
// press opens its details pane. Without a mouse the same flow runs from the keyboard:
//  1. tab focuses a column, j/k moves inside it
//  2. enter on a station starts a drag and moves focus to the players
//  3. j/k walks the drop target, enter drops, esc cancels
//
// The (view) [Model] implements the standard Init/Update/View pattern, receiving messages via the Msg union type.
// Live status snapshots and long-press events arrive through channels, read one message at a time by commands.
//
// Player keys (+/-, m, space, s, n, p) dispatch volume, mute and transport calls through the card.
package ui
