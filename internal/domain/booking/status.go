// internal/domain/booking/status.go
package booking

type RentalStatus string
type SaleStatus string
type PaymentStatus string
type PaymentMethod string

const (
	RentalStatusPending   RentalStatus = "PENDING"
	RentalStatusConfirmed RentalStatus = "CONFIRMED"
	RentalStatusActive    RentalStatus = "ACTIVE"
	RentalStatusCompleted RentalStatus = "COMPLETED"
	RentalStatusCancelled RentalStatus = "CANCELLED"
)

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusConfirmed SaleStatus = "CONFIRMED"
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

var rentalTransitions = map[RentalStatus][]RentalStatus{
	RentalStatusPending:   {RentalStatusConfirmed, RentalStatusCancelled},
	RentalStatusConfirmed: {RentalStatusActive, RentalStatusCancelled, RentalStatusCompleted},
	RentalStatusActive:    {RentalStatusCompleted, RentalStatusCancelled},
	RentalStatusCompleted: nil,
	RentalStatusCancelled: nil,
}

var saleTransitions = map[SaleStatus][]SaleStatus{
	SaleStatusPending:   {SaleStatusConfirmed, SaleStatusCancelled},
	SaleStatusConfirmed: {SaleStatusCompleted, SaleStatusCancelled},
	SaleStatusCompleted: nil,
	SaleStatusCancelled: nil,
}

// BlockingRentalStatuses are the rental statuses that occupy the vehicle calendar.
var BlockingRentalStatuses = []RentalStatus{RentalStatusPending, RentalStatusConfirmed, RentalStatusActive}

// BlockingSaleStatuses are the sale statuses that pre-empt every rental.
var BlockingSaleStatuses = []SaleStatus{SaleStatusPending, SaleStatusConfirmed}

func (s RentalStatus) Valid() bool {
	_, ok := rentalTransitions[s]
	return ok
}

func (s RentalStatus) Blocking() bool {
	for _, b := range BlockingRentalStatuses {
		if s == b {
			return true
		}
	}
	return false
}

func (s RentalStatus) Terminal() bool {
	return s.Valid() && len(rentalTransitions[s]) == 0
}

// CanTransitionTo reports whether next is in the allowed-next set of s.
func (s RentalStatus) CanTransitionTo(next RentalStatus) bool {
	for _, allowed := range rentalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s SaleStatus) Valid() bool {
	_, ok := saleTransitions[s]
	return ok
}

func (s SaleStatus) Blocking() bool {
	for _, b := range BlockingSaleStatuses {
		if s == b {
			return true
		}
	}
	return false
}

func (s SaleStatus) Terminal() bool {
	return s.Valid() && len(saleTransitions[s]) == 0
}

func (s SaleStatus) CanTransitionTo(next SaleStatus) bool {
	for _, allowed := range saleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodCash, PaymentMethodBankTransfer:
		return true
	}
	return false
}
