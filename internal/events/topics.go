package events

// Topic constants for domain events emitted by the service.
const (
	TopicQuoteBuilt           = "quote.built"
	TopicQuoteItemRemoved     = "quote.item_removed"
	TopicProspectPhaseChanged = "prospect.phase_changed"
	TopicReminderDue          = "reminder.due"
)
