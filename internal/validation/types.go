package validation

// BillingDataRequest is the recipient snapshot supplied at checkout.
type BillingDataRequest struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	CompanyName string `json:"companyName,omitempty"`
	Country     string `json:"country" validate:"required"`
	Address     string `json:"address" validate:"required"`
	AddressTwo  string `json:"addressTwo,omitempty"`
	Town        string `json:"town" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
}

// OrderItemRequest is a single purchased line item.
type OrderItemRequest struct {
	ProductID       string  `json:"productId,omitempty"`
	Name            string  `json:"name" validate:"required"`
	Quantity        int     `json:"quantity" validate:"required,min=1"`
	Price           float64 `json:"price" validate:"required,gt=0"`
	DiscountedPrice float64 `json:"discountedPrice,omitempty" validate:"omitempty,gte=0"`
	Image           string  `json:"image,omitempty"`
}

// CreateOrderRequest is the payload for POST /orders. The stated grandTotal
// is stored as-is; it is deliberately never cross-checked against the summed
// item prices. Order status and return state are not accepted as input.
type CreateOrderRequest struct {
	BillingData      BillingDataRequest `json:"billingData" validate:"required"`
	Items            []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingFee      float64            `json:"shippingFee,omitempty" validate:"omitempty,gte=0"`
	GrandTotal       float64            `json:"grandTotal" validate:"required,gt=0"`
	PaymentMethod    string             `json:"paymentMethod" validate:"required,oneof=razorpay cod other"`
	PaymentStatus    string             `json:"paymentStatus" validate:"required,oneof=Pending Paid Failed CashOnDelivery"`
	GatewayOrderID   string             `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string             `json:"gatewayPaymentId,omitempty"`
	GatewaySignature string             `json:"gatewaySignature,omitempty"`
}

// UpdateOrderStatusRequest is the payload for PUT /orders/:id/status. The
// order service validates the status against its declared set.
type UpdateOrderStatusRequest struct {
	OrderStatus string `json:"orderStatus" validate:"required"`
}

// ReturnRequest is the payload for requesting an item return.
type ReturnRequest struct {
	Reason  string `json:"reason" validate:"required"`
	Details string `json:"details,omitempty"`
}

// ResolveReturnRequest is the admin payload deciding a requested return.
type ResolveReturnRequest struct {
	Decision string `json:"decision" validate:"required"`
}

// IssueCodeRequest asks for a one-time login code.
type IssueCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest exchanges a one-time code for a token.
type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}
