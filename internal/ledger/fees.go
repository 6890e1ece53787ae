package ledger

import "marketplace/internal/apperr"

// FeeCalculator computes fee and net amounts for ledger entries. Pure, no I/O.
// All amounts are in currency subunits; the withdrawal rate is in basis
// points so the computation stays in integer arithmetic.
type FeeCalculator struct {
	WithdrawalRateBP int64
	WithdrawalMinFee int64
}

// Compute returns (fee, net) for the given transaction type.
//
//	payment:    fee 0, net = amount (gateway fees settle out of band)
//	withdrawal: fee = max(min fee, amount*rate rounded up), net = amount - fee
//	refund:     fee 0, net = -amount
func (f FeeCalculator) Compute(txType Type, amountCents int64) (int64, int64, error) {
	if amountCents <= 0 {
		return 0, 0, apperr.Validation("amount must be positive, got %d", amountCents)
	}

	switch txType {
	case TypePayment:
		return 0, amountCents, nil
	case TypeWithdrawal:
		// Round the percentage fee up so the net payout never overshoots.
		fee := (amountCents*f.WithdrawalRateBP + 9999) / 10000
		if fee < f.WithdrawalMinFee {
			fee = f.WithdrawalMinFee
		}
		return fee, amountCents - fee, nil
	case TypeRefund:
		return 0, -amountCents, nil
	default:
		return 0, 0, apperr.Validation("unknown transaction type %q", txType)
	}
}
