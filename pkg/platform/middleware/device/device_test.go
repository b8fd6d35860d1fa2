package device

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"certdesk/pkg/requestcontext"
)

const chromeLinux = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestDescribe(t *testing.T) {
	t.Run("empty user agent", func(t *testing.T) {
		assert.Equal(t, "Unknown Device", Describe(""))
		assert.Equal(t, "Unknown Device", Describe("   "))
	})

	t.Run("desktop browser", func(t *testing.T) {
		got := Describe(chromeLinux)
		assert.Contains(t, got, "Chrome")
		assert.Contains(t, got, " on ")
		assert.Contains(t, got, "Linux")
	})

	t.Run("unrecognized agent still yields a label", func(t *testing.T) {
		assert.Contains(t, Describe("curl/8.4.0"), " on ")
	})
}

func TestDeviceMiddleware(t *testing.T) {
	var got string
	handler := Device(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = requestcontext.Device(r.Context())
	}))

	t.Run("labels from context user agent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), "10.0.0.1", chromeLinux))

		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Contains(t, got, "Chrome")
	})

	t.Run("missing metadata is unknown", func(t *testing.T) {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/submit", nil))

		assert.Equal(t, "Unknown Device", got)
	})
}
