// Package websocket streams game activity to browsers and console clients.
//
// A Hub keeps the connections watching each game. Clients connect with
// /ws?game=<id>, receive the current state as their first frame and then
// one JSON Message per turn event:
//
//	{"game_id":"a1b2","event":"rent","turn_event":{...},"game_state":{...}}
//
// Hub.Notify has the shape of service.Notifier, so the game service can
// publish straight into the hub:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//	svc := service.NewGameService(sessions, configs, service.WithNotifier(hub.Notify))
//
// Notify encodes on the caller's goroutine and never blocks; the client
// registry is touched only by the Run loop. Slow clients are disconnected
// instead of stalling a game.
package websocket
