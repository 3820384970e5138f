package order

import (
	"fmt"
	"strings"

	"github.com/Additional-Code/innkeep/internal/entity"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

// Transition is a permitted order status change.
type Transition struct {
	From entity.OrderStatus
	To   entity.OrderStatus
}

var transitions = []Transition{
	{From: entity.OrderReserved, To: entity.OrderCheckedIn},
	{From: entity.OrderReserved, To: entity.OrderCancelled},
	{From: entity.OrderReserved, To: entity.OrderException},
	{From: entity.OrderCheckedIn, To: entity.OrderCompleted},
	{From: entity.OrderCheckedIn, To: entity.OrderException},
	{From: entity.OrderCompleted, To: entity.OrderException},
	{From: entity.OrderCancelled, To: entity.OrderException},
	// exception is the manual escape hatch back into the regular flow
	{From: entity.OrderException, To: entity.OrderReserved},
	{From: entity.OrderException, To: entity.OrderCheckedIn},
	{From: entity.OrderException, To: entity.OrderCompleted},
	{From: entity.OrderException, To: entity.OrderCancelled},
}

var transitionSet = func() map[Transition]bool {
	m := make(map[Transition]bool, len(transitions))
	for _, t := range transitions {
		m[t] = true
	}
	return m
}()

// Transitions returns the full lifecycle table.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// ValidTransitionsFrom lists the statuses reachable from status in one step.
func ValidTransitionsFrom(status entity.OrderStatus) []entity.OrderStatus {
	var next []entity.OrderStatus
	for _, t := range transitions {
		if t.From == status {
			next = append(next, t.To)
		}
	}
	return next
}

// CanTransition reports whether an order may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to entity.OrderStatus) error {
	if from == to || transitionSet[Transition{From: from, To: to}] {
		return nil
	}
	valid := ValidTransitionsFrom(from)
	names := make([]string, len(valid))
	for i, s := range valid {
		names[i] = string(s)
	}
	return errorbank.Unprocessable(
		fmt.Sprintf("cannot move order from %s to %s; valid next statuses: %s", from, to, strings.Join(names, ", ")),
		errorbank.WithCause(ErrInvalidTransition),
		errorbank.WithDetail("from", from),
		errorbank.WithDetail("to", to),
		errorbank.WithDetail("valid", valid),
	)
}
