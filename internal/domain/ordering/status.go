package ordering

import "strconv"

// OrderStatus represents the lifecycle stage of an order.
// The numeric values are persisted and appear in the audit trail, so
// they must stay stable.
type OrderStatus int

const (
	OrderStatusCancelled      OrderStatus = -1
	OrderStatusOpen           OrderStatus = 0
	OrderStatusReadyToProcess OrderStatus = 1
	OrderStatusProcessing     OrderStatus = 2
	// Delivery stages are declared but not yet driven by the processor;
	// the transition graph currently goes PROCESSING -> COMPLETE.
	OrderStatusReadyToDeliver OrderStatus = 3
	OrderStatusDelivering     OrderStatus = 4
	OrderStatusDelivered      OrderStatus = 5
	OrderStatusComplete       OrderStatus = 6
)

// IsValid checks if the status is a declared OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusOpen, OrderStatusReadyToProcess,
		OrderStatusProcessing, OrderStatusReadyToDeliver, OrderStatusDelivering,
		OrderStatusDelivered, OrderStatusComplete:
		return true
	}
	return false
}

// IsTerminal returns true for COMPLETE and CANCELLED
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusComplete || s == OrderStatusCancelled
}

// String returns the symbolic name of the status
func (s OrderStatus) String() string {
	switch s {
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusOpen:
		return "OPEN"
	case OrderStatusReadyToProcess:
		return "READY_TO_PROCESS"
	case OrderStatusProcessing:
		return "PROCESSING"
	case OrderStatusReadyToDeliver:
		return "READY_TO_DELIVER"
	case OrderStatusDelivering:
		return "DELIVERING"
	case OrderStatusDelivered:
		return "DELIVERED"
	case OrderStatusComplete:
		return "COMPLETE"
	}
	return "UNKNOWN(" + strconv.Itoa(int(s)) + ")"
}

// ParticipantStatus represents the payment sub-pipeline stage of an
// order participant.
type ParticipantStatus int

const (
	ParticipantStatusCancelled      ParticipantStatus = -1
	ParticipantStatusOpen           ParticipantStatus = 0
	ParticipantStatusReadyToProcess ParticipantStatus = 1
	ParticipantStatusProcessPayment ParticipantStatus = 2
	// Loyalty and check-in stages are declared but disabled; the
	// transition graph currently goes PROCESS_PAYMENT -> COMPLETE.
	ParticipantStatusProcessLoyalty ParticipantStatus = 3
	ParticipantStatusProcessCheckin ParticipantStatus = 4
	ParticipantStatusComplete       ParticipantStatus = 5
)

// IsValid checks if the status is a declared ParticipantStatus
func (s ParticipantStatus) IsValid() bool {
	switch s {
	case ParticipantStatusCancelled, ParticipantStatusOpen,
		ParticipantStatusReadyToProcess, ParticipantStatusProcessPayment,
		ParticipantStatusProcessLoyalty, ParticipantStatusProcessCheckin,
		ParticipantStatusComplete:
		return true
	}
	return false
}

// IsTerminal returns true for COMPLETE and CANCELLED
func (s ParticipantStatus) IsTerminal() bool {
	return s == ParticipantStatusComplete || s == ParticipantStatusCancelled
}

// String returns the symbolic name of the status
func (s ParticipantStatus) String() string {
	switch s {
	case ParticipantStatusCancelled:
		return "CANCELLED"
	case ParticipantStatusOpen:
		return "OPEN"
	case ParticipantStatusReadyToProcess:
		return "READY_TO_PROCESS"
	case ParticipantStatusProcessPayment:
		return "PROCESS_PAYMENT"
	case ParticipantStatusProcessLoyalty:
		return "PROCESS_LOYALTY"
	case ParticipantStatusProcessCheckin:
		return "PROCESS_CHECKIN"
	case ParticipantStatusComplete:
		return "COMPLETE"
	}
	return "UNKNOWN(" + strconv.Itoa(int(s)) + ")"
}

// ChargeMode describes how an order's total is distributed across its
// participants.
type ChargeMode string

const (
	ChargeModeSingle    ChargeMode = "SINGLE"
	ChargeModeSplitEven ChargeMode = "SPLIT_EVEN"
	ChargeModeItemized  ChargeMode = "ITEMIZED"
)

// IsValid checks if the mode is a declared ChargeMode
func (m ChargeMode) IsValid() bool {
	switch m {
	case ChargeModeSingle, ChargeModeSplitEven, ChargeModeItemized:
		return true
	}
	return false
}
