package session

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventWalletChanged       EventType = "wallet_changed"
	EventBalanceUpdated      EventType = "balance_updated"
	EventFeesUpdated         EventType = "fees_updated"
	EventTransactionsUpdated EventType = "transactions_updated"
	EventError               EventType = "error"
)

// Event represents a session change.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
