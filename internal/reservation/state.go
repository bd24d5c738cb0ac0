package reservation

// State transitions. Every mutation of Status/PaymentStatus goes through
// these methods so the lifecycle invariants live in one place.
//
//	PENDING   --payment success--> CONFIRMED (payment PAID)
//	PENDING   --abandon/sweep----> deleted
//	CONFIRMED --arrival----------> CHECKED_IN (only while PAID)
//	CONFIRMED/CHECKED_IN --cancel--> CANCELLED (payment REFUNDED)
//
// CANCELLED is terminal. CHECKED_IN is terminal except for cancellation.

// MarkConfirmed records a successful payment capture.
func (r *Reservation) MarkConfirmed() error {
	if r.Status != StatusPending {
		return errTransition
	}
	r.Status = StatusConfirmed
	r.PaymentStatus = PaymentPaid
	return nil
}

// MarkCheckedIn records guest arrival. The payment guard is an invariant,
// not a business rule: a CONFIRMED reservation without PAID payment means
// some earlier write went wrong, and the error surfaces as a 500.
func (r *Reservation) MarkCheckedIn() error {
	if r.Status != StatusConfirmed {
		return errTransition
	}
	if r.PaymentStatus != PaymentPaid {
		return ErrCheckinUnpaid
	}
	r.Status = StatusCheckedIn
	return nil
}

// MarkCancelled releases the stay and flags the payment as refunded.
// The refund amount itself is computed by the refund package; a 0-amount
// refund still transitions here.
func (r *Reservation) MarkCancelled() error {
	switch r.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusConfirmed, StatusCheckedIn:
		r.Status = StatusCancelled
		r.PaymentStatus = PaymentRefunded
		return nil
	default:
		return errTransition
	}
}
