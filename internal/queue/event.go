// Package queue carries purchase events over RabbitMQ: a buffered publisher
// used by the purchase ledger and a consumer that writes the audit log.
package queue

// PurchaseQueueName is the durable queue purchase events are routed to.
const PurchaseQueueName = "purchase.recorded"

// PurchaseRecordedEvent is published after a purchase row was inserted.  It
// carries enough for the audit consumer to log the purchase without querying
// the database.
type PurchaseRecordedEvent struct {
    PurchaseID  uint64  `json:"purchase_id"`
    UserID      uint64  `json:"user_id"`
    GameID      uint64  `json:"game_id"`
    GameTitle   string  `json:"game_title"`
    Price       float64 `json:"price"`
    PurchasedAt string  `json:"purchased_at"` // RFC 3339, UTC
}
