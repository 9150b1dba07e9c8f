// Package services connects the player card to Home Assistant.
//
// # REST API
//
// [HassService] authenticates with a long-lived access token sent as a bearer token through an oauth2 static token
// source. It loads entity states and calls services (POST /api/services/<domain>/<service>).
//
// # Live status
//
// [StateStream] follows the WebSocket API: it answers auth_required with the token, loads every state with
// get_states and then applies state_changed events to an immutable [models.Snapshot]. It reconnects with exponential
// backoff until its context is cancelled; a rejected token is fatal.
//
// # Command dispatch
//
// [CommandQueue] implements the card's dispatcher. Calls are buffered, paced by a token bucket and sent by one worker.
// Delivery is fire-and-forget: failures are logged, never retried.
//
// # Discovery
//
// [Discover] browses mDNS for _home-assistant._tcp announcements.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : no access token configured
//   - [shared.ErrAuthFailed] : token rejected (401/403 or auth_invalid)
//   - [shared.ErrEntityNotFound] : 404 from the REST API
//   - [shared.ErrAPIRequest] : any other non-2xx response or failed websocket request
//   - [shared.ErrServiceUnavailable] : Home Assistant could not be reached
//   - [shared.ErrStreamClosed] : the websocket dropped
package services
