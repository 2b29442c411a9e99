package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

func TestGetIdempotencyKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	// Not set
	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected empty key when not set")
	}

	// Set non-string for key → should return false
	c.Set(ctxKeyIdemKey, 123)
	if k, ok := GetIdempotencyKey(c); k != "" || !(!ok) {
		t.Fatalf("expected GetIdempotencyKey to be absent for non-string value")
	}
	c.Set(ctxKeyIdemKey, "order-1")
	if k, ok := GetIdempotencyKey(c); k != "order-1" || !ok {
		t.Fatalf("GetIdempotencyKey = (%q, %v)", k, ok)
	}
}

func TestIdempotencyValidator_NoHeader_NoLookupCalled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	lookupCalled := false
	lookup := func(_ context.Context, _ int64, _ string, _ string, _ time.Time) (bool, error) {
		lookupCalled = true
		return false, nil
	}
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.GET("/ping", func(c *gin.Context) {
		// header absent ⇒ no key stashed
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("key should not be present when header missing")
		}
		c.Status(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if lookupCalled {
		t.Fatalf("lookup should not be called when header missing")
	}
}

func TestIdempotencyValidator_InvalidKey_Length(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{MaxLen: 5}, nil)) // very small
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(HeaderIdempotencyKey, "abcdef") // 6 > 5
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["code"] != "bad_idempotency_key" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestIdempotencyValidator_InvalidKey_Pattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// only digits allowed → alpha will fail
	r.Use(IdempotencyValidator(IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, nil))
	r.POST("/y", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/y", nil)
	req.Header.Set(HeaderIdempotencyKey, "abc123") // invalid
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestIdempotencyValidator_Valid_NoLookup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// MaxLen <= 0 triggers default 200, Pattern nil triggers default regex
	r.Use(IdempotencyValidator(IdempotencyOptions{}, nil))
	r.POST("/z", func(c *gin.Context) {
		key, ok := GetIdempotencyKey(c)
		if !ok || key != "abc-123" {
			t.Fatalf("expected stashed key abc-123, got %q ok=%v", key, ok)
		}
		if IsRateBypass(c) {
			t.Fatalf("expected no bypass when lookup=nil")
		}
		if IsRateBypass(c) {
			t.Fatalf("expected IsRateBypass=false when lookup=nil")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/z", nil)
	req.Header.Set(HeaderIdempotencyKey, "abc-123") // matches default pattern
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestIdempotencyValidator_Valid_WithLookup_MissAndHit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("anonymous caller skips lookup", func(t *testing.T) {
		r := gin.New()
		called := false
		lookup := func(context.Context, int64, string, string, time.Time) (bool, error) {
			called = true
			return true, nil
		}
		r.Use(IdempotencyValidator(IdempotencyOptions{Scope: "orders"}, lookup))
		r.POST("/orders", func(c *gin.Context) {
			if IsRateBypass(c) {
				t.Fatalf("anonymous request must not be a replay")
			}
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set(HeaderIdempotencyKey, "key-1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK || called {
			t.Fatalf("code=%d called=%v", w.Code, called)
		}
	})

	t.Run("lookup miss", func(t *testing.T) {
		r := gin.New()
		r.Use(withClaims(7, domain.RoleUser))
		lookup := func(_ context.Context, userID int64, scope, key string, now time.Time) (bool, error) {
			if userID != 7 || scope != "orders" || key != "key-1" || now.IsZero() {
				t.Fatalf("lookup args: uid=%d scope=%q key=%q now=%v", userID, scope, key, now)
			}
			return false, nil
		}
		r.Use(IdempotencyValidator(IdempotencyOptions{Scope: "orders"}, lookup))
		r.POST("/orders", func(c *gin.Context) {
			if IsRateBypass(c) {
				t.Fatalf("expected no replay/bypass on miss")
			}
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set(HeaderIdempotencyKey, "key-1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("miss: expected 200, got %d", w.Code)
		}
	})

	t.Run("lookup hit sets replay and bypass", func(t *testing.T) {
		r := gin.New()
		r.Use(withClaims(9, domain.RoleUser))
		lookup := func(_ context.Context, userID int64, _ string, key string, _ time.Time) (bool, error) {
			return userID == 9 && key == "k-9", nil
		}
		r.Use(IdempotencyValidator(IdempotencyOptions{Scope: "orders"}, lookup))
		r.POST("/orders", func(c *gin.Context) {
			if !IsRateBypass(c) {
				t.Fatalf("expected IsRateBypass=true on hit")
			}
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set(HeaderIdempotencyKey, "k-9")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("hit: expected 200, got %d", w.Code)
		}
	})
}

func TestIdempotencyValidator_TrimsKeyAndEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(IdempotencyValidator(IdempotencyOptions{}, nil))
	r.POST("/orders", func(c *gin.Context) {
		if key, _ := GetIdempotencyKey(c); key != "order-42" {
			t.Fatalf("expected trimmed key, got %q", key)
		}
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(HeaderIdempotencyKey, "  order-42 ")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(requestIDHeader, "rid-idem")
	req.Header.Set(HeaderIdempotencyKey, "has space")
	r.ServeHTTP(w, req)
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if w.Code != http.StatusBadRequest || body["request_id"] != "rid-idem" {
		t.Fatalf("code=%d body=%v", w.Code, body)
	}
}

func TestIdempotencyValidator_LookupErrorProceeds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(withClaims(3, domain.RoleUser))
	lookup := func(context.Context, int64, string, string, time.Time) (bool, error) {
		return false, errors.New("db down")
	}
	r.Use(IdempotencyValidator(IdempotencyOptions{Scope: "orders"}, lookup))
	r.POST("/orders", func(c *gin.Context) {
		if IsRateBypass(c) {
			t.Fatalf("lookup failure must not mark a replay")
		}
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(HeaderIdempotencyKey, "k-3")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "idempotency lookup failed") {
		t.Fatalf("expected warning log, got:\n%s", buf.String())
	}
}
