package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	p := Principal{ID: "user-1", Email: "ada@example.com", Role: RoleCustomer}

	signed, err := tokens.Issue(p)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	got, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if got != p {
		t.Fatalf("expected %+v, got %+v", p, got)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	signed, err := NewTokens("secret-a", time.Hour).Issue(Principal{ID: "u", Email: "e@x.com", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := NewTokens("secret-b", time.Hour).Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	tokens := NewTokens("test-secret", time.Minute)
	issuedAt := time.Now().Add(-time.Hour)
	tokens.nowFunc = func() time.Time { return issuedAt }

	signed, err := tokens.Issue(Principal{ID: "u", Email: "e@x.com", Role: RoleCustomer})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	tokens.nowFunc = time.Now
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for an expired token, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	if _, err := tokens.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := NewTokens("test-secret", time.Hour)

	router := gin.New()
	router.GET("/whoami", RequireAuth(tokens), func(c *gin.Context) {
		p, ok := FromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no principal"})
			return
		}
		c.JSON(http.StatusOK, p)
	})

	// No header.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}

	// Malformed header.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a non-bearer header, got %d", rec.Code)
	}

	// Valid token.
	signed, err := tokens.Issue(Principal{ID: "user-1", Email: "ada@example.com", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a valid token, got %d (%s)", rec.Code, rec.Body.String())
	}
}
