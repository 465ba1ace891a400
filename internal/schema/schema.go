package schema

// OrdStatus tracks the lifecycle state of an order.
type OrdStatus uint16

const (
	OrdStatusInvalid OrdStatus = iota
	OrdStatusPendingNew
	OrdStatusNew
	OrdStatusPartiallyFilled
	OrdStatusFilled
	OrdStatusPendingCancel
	OrdStatusCanceled
	OrdStatusNewRejected
	OrdStatusCancelRejected
)

// IsTerminal reports whether the status can never change again.
func (s OrdStatus) IsTerminal() bool {
	switch s {
	case OrdStatusFilled, OrdStatusCanceled, OrdStatusNewRejected, OrdStatusCancelRejected:
		return true
	default:
		return false
	}
}

func (s OrdStatus) String() string {
	switch s {
	case OrdStatusPendingNew:
		return "PendingNew"
	case OrdStatusNew:
		return "New"
	case OrdStatusPartiallyFilled:
		return "PartiallyFilled"
	case OrdStatusFilled:
		return "Filled"
	case OrdStatusPendingCancel:
		return "PendingCancel"
	case OrdStatusCanceled:
		return "Canceled"
	case OrdStatusNewRejected:
		return "NewRejected"
	case OrdStatusCancelRejected:
		return "CancelRejected"
	default:
		return "Invalid"
	}
}

// OrdType describes the order price type.
type OrdType uint16

const (
	OrdTypeUnknown OrdType = iota
	OrdTypeLimit
	OrdTypeMarket
	OrdTypeFOK
	OrdTypeFAK
)

// TrdDirection describes the trade direction.
type TrdDirection uint16

const (
	TrdDirectionUnknown TrdDirection = iota
	TrdDirectionLong
	TrdDirectionShort
)

// TrdAction describes the position action of a trade.
type TrdAction uint16

const (
	TrdActionUnknown TrdAction = iota
	TrdActionOpen
	TrdActionClose
	TrdActionCloseToday
	TrdActionCloseYesterday
)
