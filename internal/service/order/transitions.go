package order

import "github.com/cTHE0/restaurant/internal/entity"

var allowedTransitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.StatusPending:   {entity.StatusPreparing, entity.StatusCancelled},
	entity.StatusPreparing: {entity.StatusReady, entity.StatusCancelled},
	entity.StatusReady:     {entity.StatusDelivered, entity.StatusCancelled},
}

// CanTransition reports whether the strict lifecycle allows moving from one
// status to another. Delivered and cancelled are terminal; staying in the
// same status is always allowed.
func CanTransition(from, to entity.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
