package customrequest

import (
	"fmt"

	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
)

type event int

const (
	eventAttachSamples event = iota
	eventStartWork
	eventSelectSample
	eventRequestAdjustment
	eventConvertToCart
	eventComplete
	eventCancel
)

func (e event) String() string {
	switch e {
	case eventAttachSamples:
		return "attach samples"
	case eventStartWork:
		return "start work"
	case eventSelectSample:
		return "select sample"
	case eventRequestAdjustment:
		return "request adjustment"
	case eventConvertToCart:
		return "convert to cart item"
	case eventComplete:
		return "complete"
	case eventCancel:
		return "cancel"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// transition is the whole state machine. Anything not listed is rejected.
func transition(from Status, ev event) (Status, error) {
	switch ev {
	case eventAttachSamples:
		switch from {
		case StatusPending, StatusInProgress:
			return StatusSamplesSent, nil
		}
	case eventStartWork:
		if from == StatusPending {
			return StatusInProgress, nil
		}
	case eventSelectSample:
		if from == StatusSamplesSent {
			return StatusApproved, nil
		}
	case eventRequestAdjustment:
		if from == StatusSamplesSent {
			return StatusPending, nil
		}
	case eventConvertToCart:
		if from == StatusApproved {
			return StatusInCart, nil
		}
	case eventComplete:
		if !from.Terminal() {
			return StatusCompleted, nil
		}
	case eventCancel:
		if !from.Terminal() {
			return StatusCancelled, nil
		}
	}
	return from, fmt.Errorf("%w: cannot %s from %s", domain.ErrInvalidTransition, ev, from)
}
