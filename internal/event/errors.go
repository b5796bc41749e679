package event

import "errors"

// ErrArgument marks malformed input: empty workflow id, invalid event type,
// or any other caller mistake that must never be retried. Wrap it with
// fmt.Errorf("%w: ...", ErrArgument) and callers can test with errors.Is.
var ErrArgument = errors.New("argument error")

// ErrSerialization marks an event whose data cannot be encoded as canonical
// JSON. Treated as an ErrArgument at the store boundary.
var ErrSerialization = errors.New("serialization error")
