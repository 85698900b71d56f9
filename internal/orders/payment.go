package orders

import "agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"

// PaymentStatus tracks which sides have paid their commission
type PaymentStatus string

const (
	PaymentPending      PaymentStatus = "pending"
	PaymentSupplierPaid PaymentStatus = "supplier_commission_paid"
	PaymentBuyerPaid    PaymentStatus = "buyer_commission_paid"
	PaymentAllPaid      PaymentStatus = "all_paid"
)

// PaymentSide is the party whose commission payment arrived
type PaymentSide string

const (
	SideSupplier PaymentSide = "supplier"
	SideBuyer    PaymentSide = "buyer"
)

// paymentTable lists every status × side pair. Repeating a side, or paying on
// all_paid, leaves the status unchanged.
var paymentTable = map[PaymentStatus]map[PaymentSide]PaymentStatus{
	PaymentPending: {
		SideSupplier: PaymentSupplierPaid,
		SideBuyer:    PaymentBuyerPaid,
	},
	PaymentSupplierPaid: {
		SideSupplier: PaymentSupplierPaid,
		SideBuyer:    PaymentAllPaid,
	},
	PaymentBuyerPaid: {
		SideSupplier: PaymentAllPaid,
		SideBuyer:    PaymentBuyerPaid,
	},
	PaymentAllPaid: {
		SideSupplier: PaymentAllPaid,
		SideBuyer:    PaymentAllPaid,
	},
}

// NextPaymentStatus applies a payment from side to current
func NextPaymentStatus(current PaymentStatus, side PaymentSide) (PaymentStatus, error) {
	row, ok := paymentTable[current]
	if !ok {
		return current, apperrors.Validation("Unknown payment status %q", current)
	}
	next, ok := row[side]
	if !ok {
		return current, apperrors.Validation("payment_from must be supplier or buyer")
	}
	return next, nil
}
