package dialog

import (
	"errors"

	"github.com/BaSui01/convosim/types"
)

// Sentinel errors for errors.Is matching. Errors returned by this package carry
// the same codes with a more specific message.
var (
	ErrNoExpanderForMove           = types.NewError(types.ErrNoExpanderForMove, "no expander node declares the dialog move")
	ErrNoExpanderForTopic          = types.NewError(types.ErrNoExpanderForTopic, "no expander node addresses the topic")
	ErrNoNodesSatisfyPreconditions = types.NewError(types.ErrNoNodesSatisfyPreconditions, "no candidate expander nodes satisfy their preconditions").WithRetryable(true)
	ErrInvalidTemplate             = types.NewError(types.ErrInvalidTemplate, "invalid template")
	ErrInvalidProbability          = types.NewError(types.ErrInvalidProbability, "probability must be within [0, 1]")
)

func noExpanderForMove(move DialogMove) error {
	return types.Errorf(types.ErrNoExpanderForMove, "no expander node declares dialog move %q", string(move))
}

func noExpanderForTopic(topic Topic) error {
	return types.Errorf(types.ErrNoExpanderForTopic, "no expander node addresses topic %q", string(topic))
}

func noNodesSatisfyPreconditions() error {
	return types.NewError(types.ErrNoNodesSatisfyPreconditions, "no candidate expander nodes satisfy their preconditions").
		WithRetryable(true)
}

func invalidTemplate(format string, args ...any) error {
	return types.Errorf(types.ErrInvalidTemplate, format, args...)
}

// IsTransient reports whether err only means the current state does not permit
// the requested realization. Callers try something else instead of failing.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNoNodesSatisfyPreconditions)
}
