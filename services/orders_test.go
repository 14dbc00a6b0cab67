package services

import (
	"testing"

	"bulk-buddy-api/events"
	"bulk-buddy-api/models"
	"bulk-buddy-api/statemachine"
	"bulk-buddy-api/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderClaimsQuantity(t *testing.T) {
	svc, rec := setupService(t)
	driver := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	trip := testutil.CreateTrip(t, svc.DB, driver, 10)
	itemID := trip.Items[0].ID

	item := reloadItem(t, svc.DB, itemID)
	assert.Equal(t, 10, item.AvailableQuantity())

	order, err := svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: itemID, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, 3, order.OrderItems[0].Quantity)
	require.NotNil(t, order.OrderItems[0].Item)
	assert.Equal(t, 7.5, order.Total())

	item = reloadItem(t, svc.DB, itemID)
	assert.Equal(t, 3, item.ClaimedQuantity)
	assert.Equal(t, 7, item.AvailableQuantity())
	assert.Equal(t, []events.Type{events.OrderPlaced}, rec.Types())
}

func TestPlaceOrderMergesDuplicateLines(t *testing.T) {
	svc, _ := setupService(t)
	driver := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	trip := testutil.CreateTrip(t, svc.DB, driver, 10)
	itemID := trip.Items[0].ID

	order, err := svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{
		{ItemID: itemID, Quantity: 2},
		{ItemID: itemID, Quantity: 4},
	})
	require.NoError(t, err)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, 6, order.OrderItems[0].Quantity)
	assert.Equal(t, 6, reloadItem(t, svc.DB, itemID).ClaimedQuantity)
}

func TestPlaceOrderRejectsOverClaim(t *testing.T) {
	svc, _ := setupService(t)
	driver := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	trip := testutil.CreateTrip(t, svc.DB, driver, 10, 5)
	first, second := trip.Items[0].ID, trip.Items[1].ID

	_, err := svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: first, Quantity: 8}})
	require.NoError(t, err)

	// the second line fits but the first does not; nothing may stick
	_, err = svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{
		{ItemID: first, Quantity: 3},
		{ItemID: second, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrInsufficientQuantity)

	assert.Equal(t, 8, reloadItem(t, svc.DB, first).ClaimedQuantity)
	assert.Equal(t, 0, reloadItem(t, svc.DB, second).ClaimedQuantity)
	assert.Equal(t, int64(1), testutil.Count(t, svc.DB, &models.Order{}))
	assert.Equal(t, int64(1), testutil.Count(t, svc.DB, &models.OrderItem{}))

	// exactly the remainder is fine
	_, err = svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: first, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 0, reloadItem(t, svc.DB, first).AvailableQuantity())
}

func TestPlaceOrderValidation(t *testing.T) {
	svc, _ := setupService(t)
	driver := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	trip := testutil.CreateTrip(t, svc.DB, driver, 10)
	otherTrip := testutil.CreateTrip(t, svc.DB, driver, 10)
	itemID := trip.Items[0].ID

	_, err := svc.PlaceOrder(ctx, shopper.ID, trip.ID, nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: itemID, Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: otherTrip.Items[0].ID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrItemNotOnTrip)

	_, err = svc.PlaceOrder(ctx, driver.ID, trip.ID, []LineInput{{ItemID: itemID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrOwnTrip)

	_, err = svc.PlaceOrder(ctx, shopper.ID, 999, []LineInput{{ItemID: itemID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateTripStatus(ctx, driver.ID, models.RoleDriver, trip.ID, models.TripClosed)
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: itemID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrTripNotOpen)

	assert.Zero(t, reloadItem(t, svc.DB, itemID).ClaimedQuantity)
}

func TestCheckoutSplitsByTrip(t *testing.T) {
	svc, rec := setupService(t)
	driverA := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	driverB := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	tripA := testutil.CreateTrip(t, svc.DB, driverA, 10, 10)
	tripB := testutil.CreateTrip(t, svc.DB, driverB, 4)

	orders, err := svc.Checkout(ctx, shopper.ID, []LineInput{
		{ItemID: tripB.Items[0].ID, Quantity: 4},
		{ItemID: tripA.Items[0].ID, Quantity: 1},
		{ItemID: tripA.Items[1].ID, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, tripA.ID, orders[0].TripID)
	assert.Len(t, orders[0].OrderItems, 2)
	assert.Equal(t, tripB.ID, orders[1].TripID)
	assert.Len(t, orders[1].OrderItems, 1)
	assert.Equal(t, []events.Type{events.OrderPlaced, events.OrderPlaced}, rec.Types())
}

func TestCheckoutIsAllOrNothing(t *testing.T) {
	svc, _ := setupService(t)
	driverA := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	driverB := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	tripA := testutil.CreateTrip(t, svc.DB, driverA, 10)
	tripB := testutil.CreateTrip(t, svc.DB, driverB, 1)

	_, err := svc.Checkout(ctx, shopper.ID, []LineInput{
		{ItemID: tripA.Items[0].ID, Quantity: 5},
		{ItemID: tripB.Items[0].ID, Quantity: 2},
	})
	assert.ErrorIs(t, err, ErrInsufficientQuantity)
	assert.Zero(t, testutil.Count(t, svc.DB, &models.Order{}))
	assert.Zero(t, reloadItem(t, svc.DB, tripA.Items[0].ID).ClaimedQuantity)

	_, err = svc.Checkout(ctx, shopper.ID, []LineInput{{ItemID: 999, Quantity: 1}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderLifecycleByDriver(t *testing.T) {
	svc, _ := setupService(t)
	driver := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	other := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	trip := testutil.CreateTrip(t, svc.DB, driver, 10)

	order, err := svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: trip.Items[0].ID, Quantity: 3}})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, other.ID, models.RoleDriver, order.ID, models.OrderPurchased)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateOrderStatus(ctx, driver.ID, models.RoleDriver, order.ID, models.OrderReady)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	for _, to := range []models.OrderStatus{models.OrderPurchased, models.OrderReady, models.OrderCompleted} {
		got, err := svc.UpdateOrderStatus(ctx, driver.ID, models.RoleDriver, order.ID, to)
		require.NoError(t, err)
		assert.Equal(t, to, got.Status)
	}

	_, err = svc.UpdateOrderStatus(ctx, driver.ID, models.RoleDriver, order.ID, models.OrderCancelled)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)
	// completed orders keep their claim
	assert.Equal(t, 3, reloadItem(t, svc.DB, trip.Items[0].ID).ClaimedQuantity)
}

func TestCancelReleasesClaims(t *testing.T) {
	svc, _ := setupService(t)
	driver := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	stranger := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	trip := testutil.CreateTrip(t, svc.DB, driver, 10)
	itemID := trip.Items[0].ID

	order, err := svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: itemID, Quantity: 3}})
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, stranger.ID, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.CancelOrder(ctx, shopper.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, got.Status)
	assert.Equal(t, 0, reloadItem(t, svc.DB, itemID).ClaimedQuantity)

	_, err = svc.CancelOrder(ctx, shopper.ID, order.ID)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)
	assert.Equal(t, 0, reloadItem(t, svc.DB, itemID).ClaimedQuantity)
}

func TestShopperCannotCancelPurchasedOrder(t *testing.T) {
	svc, _ := setupService(t)
	driver := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	trip := testutil.CreateTrip(t, svc.DB, driver, 10)
	itemID := trip.Items[0].ID

	order, err := svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: itemID, Quantity: 4}})
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, driver.ID, models.RoleDriver, order.ID, models.OrderPurchased)
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, shopper.ID, order.ID)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	// the driver still can, and the units come back
	_, err = svc.UpdateOrderStatus(ctx, driver.ID, models.RoleDriver, order.ID, models.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, 0, reloadItem(t, svc.DB, itemID).ClaimedQuantity)
}

func TestGetOrderAccess(t *testing.T) {
	svc, _ := setupService(t)
	driver := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	stranger := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	admin := testutil.CreateUser(t, svc.DB, models.RoleAdmin)
	trip := testutil.CreateTrip(t, svc.DB, driver, 10)

	order, err := svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: trip.Items[0].ID, Quantity: 1}})
	require.NoError(t, err)

	for _, u := range []*models.User{shopper, driver, admin} {
		got, err := svc.GetOrder(ctx, u.ID, u.Role, order.ID)
		require.NoError(t, err, u.String())
		assert.Equal(t, order.ID, got.ID)
	}
	_, err = svc.GetOrder(ctx, stranger.ID, stranger.Role, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.GetOrder(ctx, shopper.ID, shopper.Role, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := svc.ShopperOrders(ctx, shopper.ID, "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	mine, err = svc.ShopperOrders(ctx, shopper.ID, models.OrderCancelled)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestDeleteOrder(t *testing.T) {
	svc, rec := setupService(t)
	driver := testutil.CreateUser(t, svc.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, svc.DB, models.RoleShopper)
	admin := testutil.CreateUser(t, svc.DB, models.RoleAdmin)
	trip := testutil.CreateTrip(t, svc.DB, driver, 10)
	itemID := trip.Items[0].ID

	active, err := svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: itemID, Quantity: 3}})
	require.NoError(t, err)
	cancelled, err := svc.PlaceOrder(ctx, shopper.ID, trip.ID, []LineInput{{ItemID: itemID, Quantity: 2}})
	require.NoError(t, err)
	_, err = svc.CancelOrder(ctx, shopper.ID, cancelled.ID)
	require.NoError(t, err)
	require.Equal(t, 3, reloadItem(t, svc.DB, itemID).ClaimedQuantity)

	// a cancelled order already gave its units back
	require.NoError(t, svc.DeleteOrder(ctx, admin.ID, cancelled.ID))
	assert.Equal(t, 3, reloadItem(t, svc.DB, itemID).ClaimedQuantity)

	require.NoError(t, svc.DeleteOrder(ctx, admin.ID, active.ID))
	assert.Equal(t, 0, reloadItem(t, svc.DB, itemID).ClaimedQuantity)
	assert.Zero(t, testutil.Count(t, svc.DB, &models.OrderItem{}))

	assert.ErrorIs(t, svc.DeleteOrder(ctx, admin.ID, active.ID), ErrNotFound)
	assert.Contains(t, rec.Types(), events.OrderDeleted)
}

func TestMergeLines(t *testing.T) {
	merged, err := mergeLines([]LineInput{{ItemID: 5, Quantity: 1}, {ItemID: 2, Quantity: 2}, {ItemID: 5, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, []LineInput{{ItemID: 2, Quantity: 2}, {ItemID: 5, Quantity: 4}}, merged)

	_, err = mergeLines([]LineInput{{ItemID: 1, Quantity: -1}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
