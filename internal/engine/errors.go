package engine

import "errors"

// Error kinds returned by the engine's public operations. Apart from ErrSinkFailure,
// each is a rejection, and every rejection leaves the book exactly as it was.
var (
	// ErrDuplicateOrderID is returned by Place when order_id collides with any live
	// order anywhere in the engine, not just the target book.
	ErrDuplicateOrderID = errors.New("order id already in use")

	// ErrUnknownOrder is returned by Amend/Cancel for an id that isn't resting anywhere.
	ErrUnknownOrder = errors.New("unknown order id")

	// ErrUnknownSymbol is returned by Snapshot for a symbol that has never been
	// referenced. Snapshot never creates a book as a side effect of reading.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrInvalidQuantity is returned by Place/Amend for a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidPrice is returned by Place/Amend for a non-positive or non-finite
	// limit price on a limit order.
	ErrInvalidPrice = errors.New("limit price must be a positive, finite number")

	// ErrSinkFailure wraps an error (or recovered panic) raised by the event sink.
	// By the time this is returned, the engine's state mutation is already complete
	// and consistent; the caller should treat the operation as having succeeded with
	// a possibly-lossy observation pipeline.
	ErrSinkFailure = errors.New("event sink failed to observe an event")
)
