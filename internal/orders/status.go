package orders

// OrderStatus tracks whole-order fulfilment progression. The contract is a
// plain "set status": any declared status may be assigned directly, with no
// adjacency rules between states.
type OrderStatus string

const (
	OrderProcessing     OrderStatus = "Processing"
	OrderPackaged       OrderStatus = "Packaged"
	OrderShipped        OrderStatus = "Shipped"
	OrderOutForDelivery OrderStatus = "OutForDelivery"
	OrderDelivered      OrderStatus = "Delivered"
	OrderCancelled      OrderStatus = "Cancelled"
)

// Valid reports whether s is a declared order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderProcessing, OrderPackaged, OrderShipped, OrderOutForDelivery, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// ReturnStatus tracks the per-item return lifecycle:
//
//	NotReturned -> ReturnRequested -> Returned | ReturnRejected
//
// Returned and ReturnRejected are terminal.
type ReturnStatus string

const (
	ReturnNone      ReturnStatus = "NotReturned"
	ReturnRequested ReturnStatus = "ReturnRequested"
	Returned        ReturnStatus = "Returned"
	ReturnRejected  ReturnStatus = "ReturnRejected"
)

// Valid reports whether s is a declared return status.
func (s ReturnStatus) Valid() bool {
	switch s {
	case ReturnNone, ReturnRequested, Returned, ReturnRejected:
		return true
	}
	return false
}

// ValidDecision reports whether s is an admin return resolution.
func (s ReturnStatus) ValidDecision() bool {
	return s == Returned || s == ReturnRejected
}

// PaymentStatus is set once at order creation.
type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "Pending"
	PaymentPaid           PaymentStatus = "Paid"
	PaymentFailed         PaymentStatus = "Failed"
	PaymentCashOnDelivery PaymentStatus = "CashOnDelivery"
)

// Valid reports whether s is a declared payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentCashOnDelivery:
		return true
	}
	return false
}

// PaymentMethod records how the order was placed.
type PaymentMethod string

const (
	MethodRazorpay       PaymentMethod = "razorpay"
	MethodCashOnDelivery PaymentMethod = "cod"
	MethodOther          PaymentMethod = "other"
)

// Valid reports whether m is a declared payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodRazorpay, MethodCashOnDelivery, MethodOther:
		return true
	}
	return false
}
