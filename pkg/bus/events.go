package bus

type EventId uint8

const (
	QuoteEvent EventId = iota
	SignalEvent
	OrderAdviceEvent
	CloseAdviceEvent
	OrderRejectedEvent
)
