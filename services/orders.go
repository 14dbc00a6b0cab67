package services

import (
	"context"
	"fmt"
	"sort"

	"bulk-buddy-api/events"
	"bulk-buddy-api/models"
	"bulk-buddy-api/statemachine"

	"gorm.io/gorm"
)

// LineInput asks for Quantity units of one item
type LineInput struct {
	ItemID   uint
	Quantity int
}

// mergeLines folds repeated item ids together and returns them in item id
// order so concurrent checkouts touch rows in the same sequence.
func mergeLines(lines []LineInput) ([]LineInput, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	totals := map[uint]int{}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d", ErrInvalidQuantity, l.ItemID)
		}
		totals[l.ItemID] += l.Quantity
	}
	merged := make([]LineInput, 0, len(totals))
	for id, q := range totals {
		merged = append(merged, LineInput{ItemID: id, Quantity: q})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ItemID < merged[j].ItemID })
	return merged, nil
}

// claim raises an item's claimed quantity only if the cap still holds. The
// check and the write are one statement, so no row lock is needed.
func claim(tx *gorm.DB, item *models.Item, qty int) error {
	res := tx.Model(&models.Item{}).
		Where("id = ? AND claimed_quantity + ? <= total_quantity", item.ID, qty).
		Update("claimed_quantity", gorm.Expr("claimed_quantity + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %q has %d %s left, %d requested",
			ErrInsufficientQuantity, item.Name, item.AvailableQuantity(), item.Unit, qty)
	}
	return nil
}

// releaseClaims gives an order's units back to their items
func releaseClaims(tx *gorm.DB, orderID uint) error {
	var lines []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Order("item_id asc").Find(&lines).Error; err != nil {
		return err
	}
	for _, line := range lines {
		res := tx.Model(&models.Item{}).
			Where("id = ? AND claimed_quantity >= ?", line.ItemID, line.Quantity).
			Update("claimed_quantity", gorm.Expr("claimed_quantity - ?", line.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("item %d claimed quantity is below order %d's claim of %d", line.ItemID, orderID, line.Quantity)
		}
	}
	return nil
}

// placeOrderTx claims every line against one trip and records the order
func placeOrderTx(tx *gorm.DB, shopperID, tripID uint, lines []LineInput) (*models.Order, error) {
	var trip models.Trip
	if err := tx.First(&trip, tripID).Error; err != nil {
		return nil, notFound(err, "trip", tripID)
	}
	if trip.Status != models.TripOpen {
		return nil, fmt.Errorf("%w: trip %d is %s", ErrTripNotOpen, tripID, trip.Status)
	}
	if trip.DriverID == shopperID {
		return nil, ErrOwnTrip
	}

	order := models.Order{
		ShopperID: shopperID,
		TripID:    tripID,
		Status:    models.OrderPending,
	}
	for _, line := range lines {
		var item models.Item
		if err := tx.First(&item, line.ItemID).Error; err != nil {
			return nil, notFound(err, "item", line.ItemID)
		}
		if item.TripID != tripID {
			return nil, fmt.Errorf("%w: item %d, trip %d", ErrItemNotOnTrip, item.ID, tripID)
		}
		if err := claim(tx, &item, line.Quantity); err != nil {
			return nil, err
		}
		order.OrderItems = append(order.OrderItems, models.OrderItem{ItemID: item.ID, Quantity: line.Quantity})
	}

	if err := tx.Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// PlaceOrder creates one order against one trip
func (s *Service) PlaceOrder(ctx context.Context, shopperID, tripID uint, lines []LineInput) (*models.Order, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		order, txErr = placeOrderTx(tx, shopperID, tripID, merged)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.OrderPlaced, order.ID, string(order.Status), shopperID))
	return s.loadOrder(ctx, order.ID)
}

// Checkout splits a cart spanning several trips into one order per trip.
// Either every order is placed or none is.
func (s *Service) Checkout(ctx context.Context, shopperID uint, lines []LineInput) ([]models.Order, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	var placed []*models.Order
	err = s.db(ctx).Transaction(func(tx *gorm.DB) error {
		byTrip := map[uint][]LineInput{}
		for _, line := range merged {
			var item models.Item
			if err := tx.Select("id", "trip_id").First(&item, line.ItemID).Error; err != nil {
				return notFound(err, "item", line.ItemID)
			}
			byTrip[item.TripID] = append(byTrip[item.TripID], line)
		}

		tripIDs := make([]uint, 0, len(byTrip))
		for id := range byTrip {
			tripIDs = append(tripIDs, id)
		}
		sort.Slice(tripIDs, func(i, j int) bool { return tripIDs[i] < tripIDs[j] })

		for _, tripID := range tripIDs {
			order, err := placeOrderTx(tx, shopperID, tripID, byTrip[tripID])
			if err != nil {
				return err
			}
			placed = append(placed, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(placed))
	for _, o := range placed {
		s.publish(ctx, events.New(events.OrderPlaced, o.ID, string(o.Status), shopperID))
		full, err := s.loadOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *full)
	}
	return orders, nil
}

func (s *Service) loadOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db(ctx).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("OrderItems.Item").
		First(&order, id).Error
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

// GetOrder returns an order to its shopper, the trip's driver, or an admin
func (s *Service) GetOrder(ctx context.Context, actorID uint, role models.UserRole, orderID uint) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleAdmin || order.ShopperID == actorID {
		return order, nil
	}
	var trip models.Trip
	if err := s.db(ctx).Select("id", "driver_id").First(&trip, order.TripID).Error; err != nil {
		return nil, notFound(err, "trip", order.TripID)
	}
	if trip.DriverID != actorID {
		return nil, fmt.Errorf("%w: order %d", ErrForbidden, orderID)
	}
	return order, nil
}

// ShopperOrders lists a shopper's orders, newest first
func (s *Service) ShopperOrders(ctx context.Context, shopperID uint, status models.OrderStatus) ([]models.Order, error) {
	query := s.db(ctx).
		Preload("OrderItems.Item").
		Where("shopper_id = ?", shopperID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var orders []models.Order
	err := query.Order("created_at desc").Order("id desc").Find(&orders).Error
	return orders, err
}

// transitionOrder applies a checked status change, releasing claims when
// the order is cancelled
func transitionOrder(tx *gorm.DB, order *models.Order, to models.OrderStatus, actor models.UserRole) error {
	if err := statemachine.Orders.CanTransition(order.Status, to, actor); err != nil {
		return err
	}
	if to == models.OrderCancelled {
		if err := releaseClaims(tx, order.ID); err != nil {
			return err
		}
	}
	if err := tx.Model(order).Update("status", to).Error; err != nil {
		return err
	}
	order.Status = to
	return nil
}

// UpdateOrderStatus is the driver (or admin) side of the order lifecycle
func (s *Service) UpdateOrderStatus(ctx context.Context, actorID uint, role models.UserRole, orderID uint, to models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return notFound(err, "order", orderID)
		}
		if _, err := loadOwnedTrip(tx, actorID, role, order.TripID); err != nil {
			return err
		}
		return transitionOrder(tx, &order, to, tripActor(role))
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.OrderStatusChanged, order.ID, string(to), actorID))
	return &order, nil
}

// CancelOrder lets a shopper withdraw a pending order
func (s *Service) CancelOrder(ctx context.Context, shopperID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return notFound(err, "order", orderID)
		}
		if order.ShopperID != shopperID {
			return fmt.Errorf("%w: order %d belongs to another shopper", ErrForbidden, orderID)
		}
		return transitionOrder(tx, &order, models.OrderCancelled, models.RoleShopper)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.OrderStatusChanged, order.ID, string(order.Status), shopperID))
	return &order, nil
}

// DeleteOrder removes an order and its line items, returning any units it
// still held to their items
func (s *Service) DeleteOrder(ctx context.Context, actorID, orderID uint) error {
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return notFound(err, "order", orderID)
		}
		if order.Status.HoldsClaims() {
			if err := releaseClaims(tx, order.ID); err != nil {
				return err
			}
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.New(events.OrderDeleted, orderID, "", actorID))
	return nil
}
