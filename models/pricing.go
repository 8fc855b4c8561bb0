package models

// OrderTotal computes an order's total from its loaded items. Items must
// have Product and Product.Establishment preloaded. An order with no items
// always totals zero, whatever its type.
func OrderTotal(order *Order) int {
	if len(order.OrderItems) == 0 {
		return 0
	}

	subtotal := 0
	for _, item := range order.OrderItems {
		subtotal += item.Product.Price * item.Amount
	}

	// All items belong to one establishment (enforced on every item write),
	// so the first one resolves the surcharge policy.
	cafe := order.OrderItems[0].Product.Establishment

	switch order.OrderType {
	case OrderTypeService:
		return subtotal + (subtotal/100)*cafe.ServicePrice
	case OrderTypeDelivery:
		return subtotal + cafe.DeliveryPrice
	default:
		return subtotal
	}
}
