package orders

import "time"

// BillingData is the recipient snapshot captured at checkout. Immutable
// after creation.
type BillingData struct {
	FirstName   string `dynamodbav:"first_name" json:"firstName"`
	LastName    string `dynamodbav:"last_name" json:"lastName"`
	CompanyName string `dynamodbav:"company_name,omitempty" json:"companyName,omitempty"`
	Country     string `dynamodbav:"country" json:"country"`
	Address     string `dynamodbav:"address" json:"address"`
	AddressTwo  string `dynamodbav:"address_two,omitempty" json:"addressTwo,omitempty"`
	Town        string `dynamodbav:"town" json:"town"`
	Phone       string `dynamodbav:"phone" json:"phone"`
	Email       string `dynamodbav:"email" json:"email"`
}

// OrderItem is one purchased line. Name/price fields are a snapshot of the
// product at purchase time, decoupled from the live catalog. The only field
// that ever changes after creation is the return lifecycle.
type OrderItem struct {
	ItemID          string       `dynamodbav:"item_id" json:"itemId"`
	ProductID       string       `dynamodbav:"product_id,omitempty" json:"productId,omitempty"`
	Name            string       `dynamodbav:"name" json:"name"`
	Quantity        int          `dynamodbav:"quantity" json:"quantity"`
	Price           float64      `dynamodbav:"price" json:"price"`
	DiscountedPrice float64      `dynamodbav:"discounted_price,omitempty" json:"discountedPrice,omitempty"`
	Image           string       `dynamodbav:"image,omitempty" json:"image,omitempty"`
	ReturnStatus    ReturnStatus `dynamodbav:"return_status" json:"returnStatus"`
	ReturnReason    string       `dynamodbav:"return_reason,omitempty" json:"returnReason,omitempty"`
	ReturnDetails   string       `dynamodbav:"return_details,omitempty" json:"returnDetails,omitempty"`
}

// Order is the invoice document stored in the orders table. BillingEmail
// duplicates BillingData.Email at the top level as the partition key of the
// listing GSI. Version is the optimistic-concurrency counter every mutation
// must pass as its condition.
type Order struct {
	OrderID      string      `dynamodbav:"order_id" json:"orderId"` // PK
	BillingData  BillingData `dynamodbav:"billing_data" json:"billingData"`
	BillingEmail string      `dynamodbav:"billing_email" json:"-"` // GSI PK
	Items        []OrderItem `dynamodbav:"order_items" json:"items"`
	ShippingFee  float64     `dynamodbav:"shipping_fee" json:"shippingFee"`
	GrandTotal   float64     `dynamodbav:"grand_total" json:"grandTotal"`

	PaymentMethod PaymentMethod `dynamodbav:"payment_method" json:"paymentMethod"`
	PaymentStatus PaymentStatus `dynamodbav:"payment_status" json:"paymentStatus"`
	OrderStatus   OrderStatus   `dynamodbav:"order_status" json:"orderStatus"`

	GatewayOrderID   string `dynamodbav:"gateway_order_id,omitempty" json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string `dynamodbav:"gateway_payment_id,omitempty" json:"gatewayPaymentId,omitempty"`
	GatewaySignature string `dynamodbav:"gateway_signature,omitempty" json:"gatewaySignature,omitempty"`

	CreatedAt time.Time `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updatedAt"`
	Version   int64     `dynamodbav:"version" json:"-"`
}

// Item returns the index of the item with the given id, or -1.
func (o *Order) Item(itemID string) int {
	for i := range o.Items {
		if o.Items[i].ItemID == itemID {
			return i
		}
	}
	return -1
}
