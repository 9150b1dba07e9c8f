// Package server provides HTTP routing, middleware, OAuth handling and the card's JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so one path can be served by
// several methods and path values like {entity} are read with [http.Request.PathValue].
//
// # Card API
//
// [API] exposes one card over JSON. Every response renders against the latest status snapshot:
//
//	GET    /api/health                      liveness and whether a config is loaded
//	GET    /api/card                        the rendered card
//	GET    /api/config                      the editor's working config and its validity
//	PUT    /api/config                      replace the config (YAML or JSON body)
//	GET    /api/config/stub                 the starter config
//	GET    /api/connections                 the persisted player to station map
//	POST   /api/drag/{start,hover,leave,cancel}
//	POST   /api/drop                        commit the dragged station to a player
//	POST   /api/players/{entity}/{select,volume,mute,transport}
//	POST   /api/editor/{stations,players}   append a blank row
//	PATCH  /api/editor/{stations,players}/{index}
//	DELETE /api/editor/{stations,players}/{index}
//
// Domain errors map onto status codes through [StatusFor].
//
// # OAuth Callback Handler
//
// [OAuthHandler] receives the Home Assistant authorization code callback.
//
// The handler validates the state parameter, exchanges the authorization code for tokens,
// and sends the result through a channel. It only processes one callback.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
