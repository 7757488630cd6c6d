package channel

import "errors"

// Sentinel errors for channel operations.
var (
	// ErrNoChannel indicates the outbound message targets a channel that is
	// not registered in the dispatcher.
	ErrNoChannel = errors.New("channel: unknown channel")

	// ErrDuplicateChannel indicates a channel with the same name is already
	// registered in the dispatcher.
	ErrDuplicateChannel = errors.New("channel: duplicate channel name")

	// ErrDeliveryFailed indicates the platform rejected a message.
	ErrDeliveryFailed = errors.New("channel: delivery failed")
)
