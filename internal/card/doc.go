// Package card implements the web radio player card: a state holder that connects stations to media players by drag and drop.
//
// The card is driven by a host adapter (the terminal UI, the HTTP API or the CLI) which maps pointer, touch and key input onto
// named handlers:
//   - [Card.BeginDrag], [Card.HoverTarget], [Card.ClearHover], [Card.CancelDrag] and [Card.Drop] for drag and drop
//   - [Card.PressStart], [Card.PressEnd] and [Card.PressCancel] for tap versus long-press
//   - [Card.SetVolume], [Card.ToggleMute] and [Card.Transport] for player controls
//
// Live status is never held by the card. Every query that depends on it takes a [models.Snapshot] explicitly, and
// [Card.Render] recomputes the whole [View] from scratch on each call.
//
// Connections survive restarts through a [Store]; outbound commands leave through a [Dispatcher].
package card
