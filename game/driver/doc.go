// Package driver runs turns on top of the engine's pure transitions.
//
// A turn starts in awaiting-roll. The driver rolls two dice through an
// injected Roller, switches to animating-movement and walks the token one
// tile at a time. Every step that lands on GO pays the salary from the bank
// before the move is applied. Only after the last step does arrival
// resolution run: rent, tax, or a purchase offer. Computer players decide
// offers with a BuyPolicy; human players leave the game in
// awaiting-property-decision until ConfirmPurchase or DeclinePurchase.
//
// Timing is a presentation concern handled by a Pacer. TimerPacer waits
// between steps like the browser board does; NoPacer runs a turn instantly.
// Cancelling the context aborts the turn at the next pause.
//
//	d := driver.New(eng,
//		driver.WithRoller(driver.NewRandomRoller(42)),
//		driver.WithPacer(driver.NewTimerPacer(driver.DefaultDelays())),
//	)
//	res, err := d.Roll(ctx)
package driver
