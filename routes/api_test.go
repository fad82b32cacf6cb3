package routes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"caregate/bootstrap"
	"caregate/pkg/config"
	"caregate/pkg/jwtauth"
	"caregate/pkg/metrics"
)

// newGatewayTestRouter 组装一个完整的网关，上游指向本地 stub
func newGatewayTestRouter(t *testing.T, upstreamURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.Set("jwt.secret", "test-secret")
	config.Set("gateway.user_service_url", upstreamURL)
	config.Set("gateway.appointment_service_url", upstreamURL)
	config.Set("gateway.payment_service_url", upstreamURL)
	config.Set("gateway.proxy_timeout_seconds", 2)

	router := gin.New()
	bootstrap.SetupGatewayRoute(router, metrics.New())
	return router
}

func issueTestToken(t *testing.T) string {
	t.Helper()
	j := &jwtauth.JWT{SignKey: []byte("test-secret"), ExpireTime: time.Hour}
	token, err := j.IssueToken("42", "patient")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

func TestGatewayHealth(t *testing.T) {
	router := newGatewayTestRouter(t, "http://127.0.0.1:1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应体不是合法 JSON: %v", err)
	}
	if body.Status != "healthy" || body.Service != "api-gateway" {
		t.Errorf("body = %+v", body)
	}
}

func TestGatewayRejectsUnauthenticated(t *testing.T) {
	router := newGatewayTestRouter(t, "http://127.0.0.1:1")

	for _, path := range []string{"/api/appointments", "/api/payments/p-1", "/api/users/profile"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusUnauthorized)
			continue
		}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("响应体不是合法 JSON: %v", err)
		}
		if body.Error != "Access token required" {
			t.Errorf("GET %s error = %q, want %q", path, body.Error, "Access token required")
		}
	}
}

func TestGatewayForwardsAuthenticatedRequest(t *testing.T) {
	var gotPath, gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1}]`))
	}))
	defer upstream.Close()

	router := newGatewayTestRouter(t, upstream.URL)
	token := issueTestToken(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if w.Body.String() != `[{"id":1}]` {
		t.Errorf("body = %q", w.Body.String())
	}
	if gotPath != "/appointments" {
		t.Errorf("上游收到 path = %q, want /appointments", gotPath)
	}
	if gotAuth != "Bearer "+token {
		t.Errorf("上游未收到 Authorization 头")
	}
}

func TestGatewayPublicRoutesSkipAuth(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7}`))
	}))
	defer upstream.Close()

	router := newGatewayTestRouter(t, upstream.URL)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users/register",
		strings.NewReader(`{"email":"a@b.c","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if gotPath != "/register" {
		t.Errorf("上游收到 path = %q, want /register", gotPath)
	}
}

func TestGatewayUnknownRoute(t *testing.T) {
	router := newGatewayTestRouter(t, "http://127.0.0.1:1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应体不是合法 JSON: %v", err)
	}
	if body.Error != "Route not found" {
		t.Errorf("error = %q, want %q", body.Error, "Route not found")
	}
}

func TestGatewayExposesRequestMetrics(t *testing.T) {
	router := newGatewayTestRouter(t, "http://127.0.0.1:1")

	// 打一次请求，再拉取指标
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(),
		`http_requests_total{method="GET",route="/health",status_code="200"} 1`) {
		t.Error("缺少 /health 的请求计数序列")
	}
}

func TestGatewaySetsRateLimitHeaders(t *testing.T) {
	router := newGatewayTestRouter(t, "http://127.0.0.1:1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	if w.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("缺少 X-RateLimit-Limit 响应头")
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("缺少 X-RateLimit-Remaining 响应头")
	}
}
