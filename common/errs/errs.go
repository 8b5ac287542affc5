package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested item is not found.
	NotFound        = ErrorKind("Not Found")
	InvalidArgument = ErrorKind("Invalid Argument")
	Unsupported     = ErrorKind("Unsupported")
	Duplicate       = ErrorKind("Duplicate")

	// Unauthorized is returned when a non-administrator attempts a privileged mutation.
	Unauthorized = ErrorKind("Unauthorized")

	// InvalidIdentity is returned for ambiguous or malformed cross-address input.
	InvalidIdentity = ErrorKind("Invalid Identity")

	// InsufficientFee is returned when the attached value does not cover a configured creation fee.
	InsufficientFee = ErrorKind("Insufficient Fee")

	// InsufficientFunds is returned when a payer's balance cannot cover a debit.
	InsufficientFunds = ErrorKind("Insufficient Funds")

	// OutsideWindow is returned for event actions outside the event's validity period.
	OutsideWindow = ErrorKind("Outside Window")

	// BatchSettlementFailed is returned when any item of a batch could not be settled.
	BatchSettlementFailed = ErrorKind("Batch Settlement Failed")

	// ActionNotConfirmed is returned when the datastore did not confirm a committed action.
	ActionNotConfirmed = ErrorKind("Action Not Confirmed")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
