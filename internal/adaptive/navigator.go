// Package adaptive holds the rules of the adaptive exam engine that do not depend on
// storage: the streak signal, difficulty navigation, area balancing, termination and
// mastery scoring.
package adaptive

import (
	"context"
	"fmt"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
)

// Signal is the difficulty move derived from the latest answers.
type Signal string

const (
	SignalUp   Signal = "up"
	SignalDown Signal = "down"
	SignalStay Signal = "stay"
)

// StreakSignal looks at the two most recent answers, newest first.
// Two correct answers move up, two incorrect move down, anything else holds.
func StreakSignal(recent []bool) Signal {
	if len(recent) < 2 {
		return SignalStay
	}
	switch {
	case recent[0] && recent[1]:
		return SignalUp
	case !recent[0] && !recent[1]:
		return SignalDown
	default:
		return SignalStay
	}
}

// StandardLocator finds the closest standard strictly above or below a value.
type StandardLocator interface {
	NeighborStandard(ctx context.Context, subjectID uint, current float64, direction models.Direction) (*models.Standard, error)
}

type Navigator struct {
	standards StandardLocator
}

func NewNavigator(standards StandardLocator) *Navigator {
	return &Navigator{standards: standards}
}

// NextTarget moves the target one standard in the signalled direction. At either end of
// the difficulty scale the target holds.
func (n *Navigator) NextTarget(ctx context.Context, subjectID uint, current float64, signal Signal) (float64, error) {
	var direction models.Direction
	switch signal {
	case SignalUp:
		direction = models.DirectionUp
	case SignalDown:
		direction = models.DirectionDown
	default:
		return current, nil
	}

	neighbor, err := n.standards.NeighborStandard(ctx, subjectID, current, direction)
	if err != nil {
		return current, fmt.Errorf("failed to find %s neighbor of %.2f: %w", direction, current, err)
	}
	if neighbor == nil {
		return current, nil
	}
	return neighbor.DifficultyValue, nil
}
