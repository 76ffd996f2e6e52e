package mail

import "time"

// TopicDelivery is the queue topic carrying outgoing mail.
const TopicDelivery = "mail.delivery"

// DeliveryRequestedEvent asks the mail consumer to send one message.
type DeliveryRequestedEvent struct {
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Link        string    `json:"link"`
	RequestedAt time.Time `json:"requested_at"`
}
