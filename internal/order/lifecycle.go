package order

import (
	"errors"

	"github.com/yanun0323/logs"

	"main/internal/schema"
)

var (
	ErrTerminalOrder = errors.New("order is in a terminal status")
	ErrInvalidFill   = errors.New("invalid fill quantity")
)

// applyReport advances a child order from an execution report. A fill
// appends one trade record and derives the status from the cumulative
// filled quantity; a rejection or cancellation status carried by the
// report is adopted as-is. The update is all-or-nothing for this order.
func applyReport(child *ChildOrder, report schema.OrdReport) error {
	if child.status.IsTerminal() {
		return ErrTerminalOrder
	}

	if report.LastQty < 0 {
		return ErrInvalidFill
	}

	if report.LastQty > 0 {
		applyFill(child, report)
	} else if report.Status != schema.OrdStatusInvalid {
		child.status = report.Status
	} else {
		logs.Infof("report without fill or status, uniqueId: %d", report.UniqueID)
	}

	child.AddBrokerIdentifier(report.BrokerOrdID)
	child.touch(report.Epoch)
	return nil
}

func applyFill(child *ChildOrder, report schema.OrdReport) {
	child.records.Append(report.LastPrice, report.LastQty, report.Fee, report.Epoch)

	// The broker's cumulative count wins when provided; otherwise the
	// local ledger accumulates.
	filled := child.qty.Filled + report.LastQty
	if report.FilledQty > filled {
		filled = report.FilledQty
	}
	child.qty.Filled = filled
	child.qty.LastFilled = report.LastQty
	if leaves := child.qty.Offer - filled; leaves > 0 {
		child.qty.Leaves = leaves
		child.status = schema.OrdStatusPartiallyFilled
	} else {
		child.qty.Leaves = 0
		child.status = schema.OrdStatusFilled
	}
	child.price.LastTrade = report.LastPrice
}
