package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estore-labs/go-estore-orders/internal/auth"
	"github.com/estore-labs/go-estore-orders/internal/events"
	"github.com/estore-labs/go-estore-orders/internal/orders"
	"github.com/estore-labs/go-estore-orders/internal/validation"
)

// AuthConfig groups dependencies for the login routes.
type AuthConfig struct {
	Codes     *auth.CodeStore
	Tokens    *auth.Tokens
	Events    orders.EventSink
	IsAdmin   func(email string) bool
	Validator *validatorv10.Validate
	Logger    *zap.Logger
}

// RegisterAuthRoutes wires the one-time-code login flow: POST /auth/code
// issues a code (delivered out-of-band by the notification worker), POST
// /auth/login exchanges it for a signed token.
func RegisterAuthRoutes(r *gin.Engine, cfg AuthConfig) {
	h := &authHandler{cfg: cfg}
	r.POST("/auth/code", h.issueCode)
	r.POST("/auth/login", h.login)
}

type authHandler struct {
	cfg AuthConfig
}

func (h *authHandler) issueCode(c *gin.Context) {
	ctx := c.Request.Context()

	var req validation.IssueCodeRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	email := strings.ToLower(req.Email)
	code, err := h.cfg.Codes.Issue(ctx, email)
	if err != nil {
		h.cfg.Logger.Error("issue login code failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue code"})
		return
	}

	if h.cfg.Events != nil {
		// The code rides the event to the notification worker; it is never
		// returned to the caller.
		if err := h.cfg.Events.Publish(ctx, events.Envelope{
			Type:  events.TypeAuthCodeIssued,
			Email: email,
			Code:  code,
		}); err != nil {
			h.cfg.Logger.Warn("publish code event failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "code sent"})
}

func (h *authHandler) login(c *gin.Context) {
	ctx := c.Request.Context()

	var req validation.LoginRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	email := strings.ToLower(req.Email)
	if err := h.cfg.Codes.Consume(ctx, email, req.Code); err != nil {
		if err == auth.ErrCodeInvalid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		h.cfg.Logger.Error("consume login code failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	role := auth.RoleCustomer
	if h.cfg.IsAdmin != nil && h.cfg.IsAdmin(email) {
		role = auth.RoleAdmin
	}

	token, err := h.cfg.Tokens.Issue(auth.Principal{
		ID:    uuid.NewString(),
		Email: email,
		Role:  role,
	})
	if err != nil {
		h.cfg.Logger.Error("sign token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "role": role})
}
