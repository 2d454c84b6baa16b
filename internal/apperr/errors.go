package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition indicates an illegal shop order status change.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrAssignmentExists indicates a broadcast while the shop order already has
// an active assignment.
var ErrAssignmentExists = errors.New("assignment already exists")

// ErrNoPartnersAvailable indicates the broadcaster found zero candidates.
var ErrNoPartnersAvailable = errors.New("no delivery partners available")

// ErrAssignmentTaken indicates a lost acceptance race: the assignment is no
// longer in the broadcasted state.
var ErrAssignmentTaken = errors.New("assignment no longer available")

// ErrOtpRequired indicates a delivery finalization attempt without a
// verified delivery code.
var ErrOtpRequired = errors.New("otp verification required")

// ErrInvalidOtp indicates a submitted delivery code that does not match.
var ErrInvalidOtp = errors.New("invalid otp")

// ErrAlreadyDelivered indicates a repeated finalization of a delivered
// shop order.
var ErrAlreadyDelivered = errors.New("already delivered")

// ErrNoLocationYet indicates the assigned partner has not reported a
// position since acceptance. A valid state, not a failure.
var ErrNoLocationYet = errors.New("location not yet available")
