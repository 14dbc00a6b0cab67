package statemachine

import "bulk-buddy-api/models"

// Orders: pending → purchased → ready → completed, and cancellation from any
// state before completed. Shoppers may only cancel before the driver buys.
var Orders = New("order",
	Transition[models.OrderStatus]{From: models.OrderPending, To: models.OrderPurchased, Actor: models.RoleDriver},
	Transition[models.OrderStatus]{From: models.OrderPurchased, To: models.OrderReady, Actor: models.RoleDriver},
	Transition[models.OrderStatus]{From: models.OrderReady, To: models.OrderCompleted, Actor: models.RoleDriver},
	Transition[models.OrderStatus]{From: models.OrderPending, To: models.OrderCancelled, Actor: models.RoleShopper},
	Transition[models.OrderStatus]{From: models.OrderPending, To: models.OrderCancelled, Actor: models.RoleDriver},
	Transition[models.OrderStatus]{From: models.OrderPurchased, To: models.OrderCancelled, Actor: models.RoleDriver},
	Transition[models.OrderStatus]{From: models.OrderReady, To: models.OrderCancelled, Actor: models.RoleDriver},

	Transition[models.OrderStatus]{From: models.OrderPending, To: models.OrderPurchased, Actor: models.RoleAdmin},
	Transition[models.OrderStatus]{From: models.OrderPurchased, To: models.OrderReady, Actor: models.RoleAdmin},
	Transition[models.OrderStatus]{From: models.OrderReady, To: models.OrderCompleted, Actor: models.RoleAdmin},
	Transition[models.OrderStatus]{From: models.OrderPending, To: models.OrderCancelled, Actor: models.RoleAdmin},
	Transition[models.OrderStatus]{From: models.OrderPurchased, To: models.OrderCancelled, Actor: models.RoleAdmin},
	Transition[models.OrderStatus]{From: models.OrderReady, To: models.OrderCancelled, Actor: models.RoleAdmin},
)

// Trips: open (accepting claims) → closed (driver shopping) → completed
var Trips = New("trip",
	Transition[models.TripStatus]{From: models.TripOpen, To: models.TripClosed, Actor: models.RoleDriver},
	Transition[models.TripStatus]{From: models.TripClosed, To: models.TripCompleted, Actor: models.RoleDriver},
	Transition[models.TripStatus]{From: models.TripOpen, To: models.TripClosed, Actor: models.RoleAdmin},
	Transition[models.TripStatus]{From: models.TripClosed, To: models.TripCompleted, Actor: models.RoleAdmin},
)

// DriverApplications are reviewed once by an admin
var DriverApplications = New("driver application",
	Transition[models.ApplicationStatus]{From: models.ApplicationPending, To: models.ApplicationApproved, Actor: models.RoleAdmin},
	Transition[models.ApplicationStatus]{From: models.ApplicationPending, To: models.ApplicationRejected, Actor: models.RoleAdmin},
)
