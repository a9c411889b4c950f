// Package service is the layer every transport talks to.
//
// GameService hosts many independent games. Each game is a Session holding
// its own engine, setup preset, dice and event history. Commands on one
// session are serialised by the session lock, so a snapshot or a state read
// never sees a half-played turn while different games proceed in parallel.
//
// Turns are delegated to the driver package. Every driver event is appended
// to the session history and handed to the optional Notifier, which the
// server uses to push updates to websocket clients.
//
//	sessions := session.NewManager(logger)
//	configs, _ := config.NewManager("configs")
//	svc := service.NewGameService(sessions, configs,
//		service.WithStore(store),
//		service.WithNotifier(hub.Notify),
//	)
//
//	info, _ := svc.CreateGame(ctx, "classic")
//	res, err := svc.Roll(ctx, info.ID)
//
// Snapshots go through the storage.Store given with WithStore. Without one
// the snapshot operations return ErrStorageDisabled.
package service
