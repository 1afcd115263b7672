// Package device summarizes the caller's User-Agent into a compact
// browser/OS description. Security audit events carry the summary so
// forensics can distinguish a rotated API key used from an unfamiliar client.
package device

import (
	"fmt"
	"net/http"

	"github.com/mssola/useragent"

	"gatehouse/pkg/requestcontext"
)

// Middleware parses the User-Agent header and stores a normalized device
// description in the request context. Runs after metadata.ClientMetadata.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		desc := Describe(r.Header.Get("User-Agent"))
		ctx := requestcontext.WithDevice(r.Context(), desc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Describe normalizes a raw User-Agent string into "Browser x.y / OS" form.
// Bots are labeled explicitly; an empty UA yields "unknown".
func Describe(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}

	ua := useragent.New(rawUA)
	if ua.Bot() {
		name, _ := ua.Browser()
		if name == "" {
			return "bot"
		}
		return "bot/" + name
	}

	name, version := ua.Browser()
	os := ua.OS()
	switch {
	case name == "" && os == "":
		return "unknown"
	case os == "":
		return fmt.Sprintf("%s %s", name, version)
	case name == "":
		return os
	}
	return fmt.Sprintf("%s %s / %s", name, version, os)
}
