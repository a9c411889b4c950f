package driver

import "time"

// EventType names something that happened during a turn
type EventType string

const (
	EventRoll     EventType = "roll"
	EventMove     EventType = "move"
	EventSalary   EventType = "salary"
	EventOffer    EventType = "offer"
	EventPurchase EventType = "purchase"
	EventDecline  EventType = "decline"
	EventRent     EventType = "rent"
	EventTax      EventType = "tax"
	EventTurn     EventType = "turn"
)

// Event is a single observable step of the turn pipeline
type Event struct {
	Type      EventType `json:"type"`
	Player    int       `json:"player"`
	Position  int       `json:"position"`
	Amount    int       `json:"amount,omitempty"`
	Target    int       `json:"target,omitempty"`
	Dice      [2]int    `json:"dice,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Listener receives events as they happen. Listeners run on the driver's
// goroutine and must not call back into the driver.
type Listener func(Event)
