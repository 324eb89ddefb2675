package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/estore-labs/go-estore-orders/internal/auth"
	"github.com/estore-labs/go-estore-orders/internal/idempotency"
	"github.com/estore-labs/go-estore-orders/internal/orders"
	"github.com/estore-labs/go-estore-orders/internal/validation"
)

// OrdersConfig groups dependencies for the order routes.
type OrdersConfig struct {
	Service     *orders.Service
	Idempotency *idempotency.Store
	Tokens      *auth.Tokens
	Validator   *validatorv10.Validate
	Logger      *zap.Logger
}

// RegisterOrderRoutes wires the order API. All routes require a verified
// principal; role and ownership checks live in the order service.
func RegisterOrderRoutes(r *gin.Engine, cfg OrdersConfig) {
	h := &ordersHandler{cfg: cfg}

	authed := r.Group("/", auth.RequireAuth(cfg.Tokens))
	authed.POST("/orders", h.create)
	authed.GET("/orders", h.list)
	authed.GET("/my-orders", h.listMine)
	authed.GET("/orders/:id", h.get)
	authed.PUT("/orders/:id/status", h.updateStatus)
	authed.PUT("/orders/:id/items/:itemId/return", h.requestReturn)
	authed.PUT("/orders/:id/items/:itemId/resolve-return", h.resolveReturn)
}

type ordersHandler struct {
	cfg OrdersConfig
}

func (h *ordersHandler) create(c *gin.Context) {
	ctx := c.Request.Context()

	var req validation.CreateOrderRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	idemKey := c.GetHeader("Idempotency-Key")
	if idemKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
		return
	}

	principal, _ := auth.FromContext(c)
	order, err := h.cfg.Service.Create(ctx, principal, toCreateInput(req), idemKey)
	if err != nil {
		if errors.Is(err, orders.ErrDuplicateRequest) {
			h.replayDuplicate(c, idemKey)
			return
		}
		h.writeError(c, err)
		return
	}

	body, _ := json.Marshal(order)
	// Store the exact response so a replayed Idempotency-Key returns it
	// byte-for-byte.
	if err := h.cfg.Idempotency.MarkDone(ctx, idemKey, string(body), http.StatusCreated); err != nil {
		h.cfg.Logger.Warn("mark idempotency done failed",
			zap.String("order_id", order.OrderID), zap.Error(err))
	}

	c.Header("Location", "/orders/"+order.OrderID)
	c.Data(http.StatusCreated, "application/json", body)
}

// replayDuplicate resolves a create whose idempotency key already exists:
// replay the stored response, report in-progress, or advise a retry.
func (h *ordersHandler) replayDuplicate(c *gin.Context, idemKey string) {
	ctx := c.Request.Context()

	rec, err := h.cfg.Idempotency.Get(ctx, idemKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transaction_failed_no_idempotency_record"})
		return
	}

	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"orderId": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "orderId": rec.OrderID})
	case idempotency.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "orderId": rec.OrderID})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}

func (h *ordersHandler) list(c *gin.Context) {
	principal, _ := auth.FromContext(c)
	out, err := h.cfg.Service.List(c.Request.Context(), principal)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ordersHandler) listMine(c *gin.Context) {
	principal, _ := auth.FromContext(c)
	out, err := h.cfg.Service.ListMine(c.Request.Context(), principal)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ordersHandler) get(c *gin.Context) {
	principal, _ := auth.FromContext(c)
	order, err := h.cfg.Service.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ordersHandler) updateStatus(c *gin.Context) {
	var req validation.UpdateOrderStatusRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	principal, _ := auth.FromContext(c)
	order, err := h.cfg.Service.TransitionOrderStatus(c.Request.Context(), principal,
		c.Param("id"), orders.OrderStatus(req.OrderStatus))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ordersHandler) requestReturn(c *gin.Context) {
	var req validation.ReturnRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	principal, _ := auth.FromContext(c)
	order, err := h.cfg.Service.RequestReturn(c.Request.Context(), principal,
		c.Param("id"), c.Param("itemId"), req.Reason, req.Details)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ordersHandler) resolveReturn(c *gin.Context) {
	var req validation.ResolveReturnRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	principal, _ := auth.FromContext(c)
	order, err := h.cfg.Service.ResolveReturn(c.Request.Context(), principal,
		c.Param("id"), c.Param("itemId"), orders.ReturnStatus(req.Decision))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// writeError maps service errors onto the HTTP surface. Conflicts and
// storage failures are safe for the client to retry.
func (h *ordersHandler) writeError(c *gin.Context, err error) {
	var transition *orders.InvalidTransitionError
	switch {
	case errors.Is(err, orders.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusBadRequest, gin.H{"error": transition.Error()})
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, orders.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent modification, please retry"})
	default:
		h.cfg.Logger.Error("order request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func toCreateInput(req validation.CreateOrderRequest) orders.CreateOrderInput {
	in := orders.CreateOrderInput{
		BillingData: orders.BillingData{
			FirstName:   req.BillingData.FirstName,
			LastName:    req.BillingData.LastName,
			CompanyName: req.BillingData.CompanyName,
			Country:     req.BillingData.Country,
			Address:     req.BillingData.Address,
			AddressTwo:  req.BillingData.AddressTwo,
			Town:        req.BillingData.Town,
			Phone:       req.BillingData.Phone,
			Email:       req.BillingData.Email,
		},
		ShippingFee:      req.ShippingFee,
		GrandTotal:       req.GrandTotal,
		PaymentMethod:    orders.PaymentMethod(req.PaymentMethod),
		PaymentStatus:    orders.PaymentStatus(req.PaymentStatus),
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		GatewaySignature: req.GatewaySignature,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, orders.NewItemInput{
			ProductID:       it.ProductID,
			Name:            it.Name,
			Quantity:        it.Quantity,
			Price:           it.Price,
			DiscountedPrice: it.DiscountedPrice,
			Image:           it.Image,
		})
	}
	return in
}
