package ordering

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/shared/valueobject"
)

// OrderLineItem represents one line of an order. Items keep their
// insertion order via Position.
type OrderLineItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"size:200;not null"`
	Quantity  decimal.Decimal `gorm:"type:numeric(12,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Position  int             `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Order is the aggregate root for a customer's purchase request. It is
// created on placement, mutated only through processor transitions and
// the pre-verify attach operations, and soft-deleted only.
type Order struct {
	shared.TenantAggregateRoot
	Status     OrderStatus `gorm:"not null;default:0;index"`
	LocationID *uuid.UUID  `gorm:"type:uuid"`
	DeviceID   *uuid.UUID  `gorm:"type:uuid"`
	ChargeMode ChargeMode  `gorm:"size:20"`

	Subtotal decimal.Decimal `gorm:"type:numeric(12,2)"`
	Discount decimal.Decimal `gorm:"type:numeric(12,2)"`
	Fee      decimal.Decimal `gorm:"type:numeric(12,2)"`
	Tax      decimal.Decimal `gorm:"type:numeric(12,2)"`
	Tip      decimal.Decimal `gorm:"type:numeric(12,2)"`
	Total    decimal.Decimal `gorm:"type:numeric(12,2)"`

	Notes        string             `gorm:"type:text"`
	LineItems    []OrderLineItem    `gorm:"foreignKey:OrderID"`
	Participants []OrderParticipant `gorm:"foreignKey:OrderID"`

	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// OrderTotals groups the monetary fields supplied on placement
type OrderTotals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Fee      decimal.Decimal
	Tax      decimal.Decimal
	Tip      decimal.Decimal
	Total    decimal.Decimal
}

// NewOrder creates a new order in OPEN status. Field-level business
// rules are deliberately not enforced here: the OPEN stage handler
// validates them and reports a rule-specific errno per violation.
func NewOrder(tenantID uuid.UUID, locationID, deviceID *uuid.UUID, mode ChargeMode, totals OrderTotals, notes string) (*Order, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}

	return &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Status:              OrderStatusOpen,
		LocationID:          locationID,
		DeviceID:            deviceID,
		ChargeMode:          mode,
		Subtotal:            totals.Subtotal,
		Discount:            totals.Discount,
		Fee:                 totals.Fee,
		Tax:                 totals.Tax,
		Tip:                 totals.Tip,
		Total:               totals.Total,
		Notes:               notes,
		LineItems:           make([]OrderLineItem, 0),
		Participants:        make([]OrderParticipant, 0),
	}, nil
}

// ValidateForOpen checks the OPEN stage rules, returning a pipeline
// error with a distinct errno for the first violated rule.
func (o *Order) ValidateForOpen() *PipelineError {
	if o.LocationID == nil || *o.LocationID == uuid.Nil {
		return NewPipelineError(ErrnoOrderMissingLocation, "order has no location reference")
	}
	if o.DeviceID == nil || *o.DeviceID == uuid.Nil {
		return NewPipelineError(ErrnoOrderMissingDevice, "order has no device reference")
	}
	if !o.ChargeMode.IsValid() {
		return NewPipelineError(ErrnoOrderMissingChargeMode, "order has no charge-distribution mode")
	}
	if !valueobject.IsValidChargeAmount(o.Total) {
		return NewPipelineError(ErrnoOrderInvalidTotal,
			fmt.Sprintf("order total %s is not a positive two-decimal amount", o.Total))
	}
	if len(o.LineItems) > 0 {
		return NewPipelineError(ErrnoOrderItemsAttached, "order has pre-attached line items")
	}
	if len(o.Participants) > 0 {
		return NewPipelineError(ErrnoOrderParticipantsAttached, "order has pre-attached participants")
	}
	return nil
}

// SetStatus moves the order to the given status
func (o *Order) SetStatus(status OrderStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("unknown order status %d", status))
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

// AddLineItem appends a line item. Allowed only before the order
// leaves READY_TO_PROCESS.
func (o *Order) AddLineItem(name string, quantity, unitPrice decimal.Decimal) (*OrderLineItem, error) {
	if o.Status.IsTerminal() || o.Status == OrderStatusProcessing {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to an order in processing or terminal state")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ITEM", "Line item name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	now := time.Now()
	item := OrderLineItem{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Amount:    quantity.Mul(unitPrice).Round(2),
		Position:  len(o.LineItems),
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.LineItems = append(o.LineItems, item)
	o.UpdatedAt = now
	return &o.LineItems[len(o.LineItems)-1], nil
}

// AttachParticipant appends a participant. Allowed only once the order
// has been verified out of OPEN and before it reaches a terminal state.
func (o *Order) AttachParticipant(p *OrderParticipant) error {
	if o.Status == OrderStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Order must be verified before participants are attached")
	}
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot attach participants to a terminal order")
	}
	p.OrderID = o.ID
	o.Participants = append(o.Participants, *p)
	o.UpdatedAt = time.Now()
	return nil
}

// AllParticipantsSettled reports whether every participant has reached
// a terminal state. An order with no participants counts as settled.
func (o *Order) AllParticipantsSettled() bool {
	for i := range o.Participants {
		if !o.Participants[i].Status.IsTerminal() {
			return false
		}
	}
	return true
}

// TotalMoney returns the order total as a Money value
func (o *Order) TotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.Total)
}

// IsTerminal returns true if the order is complete or cancelled
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}
