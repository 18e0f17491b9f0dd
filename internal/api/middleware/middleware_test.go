package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(handlers ...gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	r.ServeHTTP(w, req)
	return w
}

func TestCORSExposesDownloadHeaders(t *testing.T) {
	w := serve(CORS([]string{"https://app.example.com"}))

	exposed := w.Header().Get("Access-Control-Expose-Headers")
	if !strings.Contains(exposed, "Content-Disposition") {
		t.Errorf("流水导出依赖 Content-Disposition 暴露，实际=%q", exposed)
	}
	if !strings.Contains(exposed, "X-Request-ID") {
		t.Errorf("追踪 ID 应暴露给前端，实际=%q", exposed)
	}
}

func TestCORSUnknownOrigin(t *testing.T) {
	w := serve(CORS([]string{"https://other.example.com"}))
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("未注册来源不应返回 CORS 头")
	}
}

func TestSecurityHeadersAllowGeolocation(t *testing.T) {
	w := serve(SecurityHeaders())

	policy := w.Header().Get("Permissions-Policy")
	if !strings.Contains(policy, "geolocation=(self)") {
		t.Errorf("打卡定位需要放行本源 geolocation，实际=%q", policy)
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options 应为 DENY，实际=%q", w.Header().Get("X-Frame-Options"))
	}
}

func TestRequestIDSanitized(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var got string
	r.GET("/ping", func(c *gin.Context) {
		got = c.GetString(requestIDKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "  trace-abc-123  ")
	r.ServeHTTP(w, req)

	if got != "trace-abc-123" {
		t.Errorf("外部追踪 ID 应去除首尾空白，实际=%q", got)
	}
	if w.Header().Get("X-Request-ID") != "trace-abc-123" {
		t.Errorf("响应头应回写追踪 ID，实际=%q", w.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDRejectsOversized(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var got string
	r.GET("/ping", func(c *gin.Context) {
		got = c.GetString(requestIDKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", requestIDMaxLen+1))
	r.ServeHTTP(w, req)

	if len(got) > requestIDMaxLen || got == strings.Repeat("a", requestIDMaxLen+1) {
		t.Errorf("超长追踪 ID 应被替换为生成的 UUID，实际=%q", got)
	}
}
