package orders

import "testing"

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{OrderProcessing, OrderPackaged, OrderShipped, OrderOutForDelivery, OrderDelivered, OrderCancelled} {
		if !s.Valid() {
			t.Errorf("%s must be valid", s)
		}
	}
	for _, s := range []OrderStatus{"", "processing", "Teleported"} {
		if s.Valid() {
			t.Errorf("%q must be invalid", s)
		}
	}
}

func TestReturnStatusDecisions(t *testing.T) {
	if !Returned.ValidDecision() || !ReturnRejected.ValidDecision() {
		t.Fatalf("terminal states are the only decisions")
	}
	if ReturnNone.ValidDecision() || ReturnRequested.ValidDecision() {
		t.Fatalf("non-terminal states are not decisions")
	}
	for _, s := range []ReturnStatus{ReturnNone, ReturnRequested, Returned, ReturnRejected} {
		if !s.Valid() {
			t.Errorf("%s must be valid", s)
		}
	}
	if ReturnStatus("Pending").Valid() {
		t.Fatalf("undeclared return status must be invalid")
	}
}

func TestPaymentEnums(t *testing.T) {
	if !MethodCashOnDelivery.Valid() || !MethodRazorpay.Valid() || !MethodOther.Valid() {
		t.Fatalf("declared payment methods must be valid")
	}
	if PaymentMethod("check").Valid() {
		t.Fatalf("undeclared payment method must be invalid")
	}
	if !PaymentCashOnDelivery.Valid() || PaymentStatus("Maybe").Valid() {
		t.Fatalf("payment status validation broken")
	}
}
