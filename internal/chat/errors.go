package chat

import "errors"

var (
	// ErrEmptyContent rejects frames whose content is empty after trimming.
	// Over the socket the frame is dropped silently; over REST it maps to 400.
	ErrEmptyContent = errors.New("empty content")

	// ErrRateLimited rejects a sender who exceeded the per-room window. The
	// sender gets a notice; the connection stays open.
	ErrRateLimited = errors.New("rate limit exceeded")
)
