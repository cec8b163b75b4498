package events

import "time"

// TopicTransferCompleted receives one event per committed transfer.
const TopicTransferCompleted = "transfer_completed"

// Publisher fans out domain events to interested consumers. Publishing is
// best effort: the balance transaction has already committed by the time
// an event is emitted, and a delivery failure never fails the operation.
type Publisher interface {
	Publish(topic string, event any) error
}

// TransferCompleted is emitted after a transfer commits.
type TransferCompleted struct {
	EventID       string    `json:"eventId"`
	SenderID      uint64    `json:"senderId"`
	RecipientID   uint64    `json:"recipientId"`
	AmountMinor   int64     `json:"amountMinor"`
	SenderBalance int64     `json:"senderBalance"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Noop discards events; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(string, any) error { return nil }
