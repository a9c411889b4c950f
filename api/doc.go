// Package api exposes the game service over HTTP.
//
// Routes (all JSON):
//
//	POST   /api/games                  create a game {"config_id": "duel"}
//	GET    /api/games                  list games (?sort=created|accessed&order=asc|desc&limit=n)
//	GET    /api/games/{id}             game info
//	DELETE /api/games/{id}             end a game
//	GET    /api/games/{id}/state       current state
//	POST   /api/games/{id}/roll        roll for the active player
//	POST   /api/games/{id}/buy         confirm the offered purchase
//	POST   /api/games/{id}/skip        decline the offered purchase
//	POST   /api/games/{id}/ai          play one computer turn
//	GET    /api/games/{id}/history     turn events (?page&limit&order)
//	POST   /api/games/{id}/save        snapshot the game
//	GET    /api/board                  tile catalog
//	GET    /api/configs                presets
//	POST   /api/configs                store a preset
//	GET    /api/configs/{name}         one preset
//	POST   /api/saves                  store a raw state snapshot
//	GET    /api/saves                  list snapshots
//	GET    /api/saves/{id}             one snapshot
//	POST   /api/saves/{id}/restore     start a game from a snapshot
//	GET    /health
//	GET    /ws?game={id}               live events, see package websocket
//
// Errors are returned as {"error": "..."}. Unknown games, saves and presets
// are 404; commands that do not fit the game's waiting mode are 409; bad
// bodies, invalid presets and unaffordable purchases are 400; a server
// without snapshot storage answers 503 on the save routes.
//
// Every response carries an X-Request-ID header, taken from the request
// when present.
package api
