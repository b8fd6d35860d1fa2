package device

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"certdesk/pkg/requestcontext"
)

const unknownDevice = "Unknown Device"

// Device labels the request with a device description derived from the
// User-Agent. It should be registered after the ClientMetadata middleware.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithDevice(ctx, Describe(requestcontext.UserAgent(ctx)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Describe extracts a display name from a User-Agent string, in the form
// "Browser on OS" (e.g. "Chrome on Linux", "Safari on iPhone").
func Describe(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return unknownDevice
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
