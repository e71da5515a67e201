package domain

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCanceled       Status = "canceled"
	StatusFailed         Status = "failed"
)

// IsTerminal reports whether the status is a logical end state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCanceled, StatusFailed:
		return true
	}
	return false
}
