package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// withClaims simulates a successful Authenticate.
func withClaims(id int64, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxKeyClaims, &auth.Claims{UserID: id, Email: "u@example.com", Role: role, Type: auth.TypeAccess})
		c.Set(ctxKeyUserID, "u")
		c.Next()
	}
}

type stubVerifier map[string]*auth.Claims

func (s stubVerifier) VerifyAccess(raw string) (*auth.Claims, error) {
	if c, ok := s[raw]; ok {
		return c, nil
	}
	return nil, auth.ErrInvalidToken
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":     "abc",
		"bearer  abc  ":  "abc",
		"Basic abc":      "",
		"Bearer":         "",
		"":               "",
		"abc":            "",
		" Bearer x.y.z ": "x.y.z",
	}
	for in, want := range cases {
		if got := bearerToken(in); got != want {
			t.Fatalf("bearerToken(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := stubVerifier{"good": {UserID: 42, Email: "a@example.com", Role: domain.RoleUser, Type: auth.TypeAccess}}

	r := gin.New()
	r.GET("/me", Authenticate(v), func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			t.Fatalf("principal missing")
		}
		uid, _ := c.Get("userID")
		claims, _ := ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "uid": uid, "email": claims.Email})
	})

	cases := []struct {
		header string
		status int
		msg    string
	}{
		{"", http.StatusUnauthorized, "missing token"},
		{"Basic good", http.StatusUnauthorized, "missing token"},
		{"Bearer bad", http.StatusForbidden, "invalid or expired token"},
		{"Bearer good", http.StatusOK, ""},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Fatalf("%q: status = %d; want %d", tc.header, w.Code, tc.status)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if tc.msg != "" && body["message"] != tc.msg {
			t.Fatalf("%q: message = %v", tc.header, body["message"])
		}
		if tc.status == http.StatusOK && (body["id"] != float64(42) || body["uid"] != "42") {
			t.Fatalf("unexpected identity: %v", body)
		}
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/anon", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/user-admin", withClaims(1, domain.RoleUser), RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin-admin", withClaims(2, domain.RoleAdmin), RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/user-any", withClaims(3, domain.RoleUser), RequireRoles(domain.RoleUser, domain.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	want := map[string]int{
		"/anon":        http.StatusUnauthorized,
		"/user-admin":  http.StatusForbidden,
		"/admin-admin": http.StatusOK,
		"/user-any":    http.StatusOK,
	}
	for path, status := range want {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != status {
			t.Fatalf("%s: status = %d; want %d", path, w.Code, status)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user-admin", nil))
	var body struct {
		Code          string   `json:"code"`
		RequiredRoles []string `json:"required_roles"`
		UserRole      string   `json:"user_role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Code != "forbidden" || len(body.RequiredRoles) != 1 || body.RequiredRoles[0] != "admin" || body.UserRole != "user" {
		t.Fatalf("unexpected 403 body: %+v", body)
	}
}

func TestPrincipalFrom_WrongType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(ctxKeyClaims, "not claims")
	if _, ok := PrincipalFrom(c); ok {
		t.Fatalf("wrong type must not yield a principal")
	}
	if _, ok := ClaimsFrom(c); ok {
		t.Fatalf("wrong type must not yield claims")
	}
}

func TestRedactingLogger_AttachesContextLoggerAndUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}))
	r.GET("/svc", withClaims(5, domain.RoleUser), func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("from service")
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/svc", nil)
	req.Header.Set(requestIDHeader, "rid-ctx")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected service line and access line, got:\n%s", buf.String())
	}
	if !strings.Contains(lines[0], `"message":"from service"`) || !strings.Contains(lines[0], `"request_id":"rid-ctx"`) {
		t.Fatalf("context logger should carry request fields: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"user_id":"u"`) {
		t.Fatalf("access log should carry the authenticated user: %s", lines[1])
	}
}
