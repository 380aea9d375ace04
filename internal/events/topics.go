package events

// Topic constants for domain events emitted by the register.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderPaid          = "order.paid"
	TopicOrderCancelled     = "order.cancelled"
	TopicOrderCombinedPaid  = "order.combined_paid"
	TopicReceiptRequested   = "receipt.requested"
	TopicKitchenTicketQueue = "kitchen.ticket_queued"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderPaid,
		TopicOrderCancelled,
		TopicOrderCombinedPaid,
		TopicReceiptRequested,
		TopicKitchenTicketQueue,
	}
}
