package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"clipforge/internal/infra/geoip"
	"clipforge/internal/quota"
)

type callerKeyContextKey struct{}
type countryContextKey struct{}

var (
	callerKey  = callerKeyContextKey{}
	countryKey = countryContextKey{}
)

// Caller annotates each request with the caller's quota fingerprint and a
// best-effort ISO country code. Country resolution is advisory: lookup
// failures never block the request.
func Caller(resolver geoip.CountryResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fp := quota.FromRequest(r)
			ctx := context.WithValue(r.Context(), callerKey, fp.Key())
			if country := resolveCountry(r, fp.IP, resolver); country != "" {
				ctx = context.WithValue(ctx, countryKey, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerKeyFromContext returns the quota fingerprint key set by Caller.
func CallerKeyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(callerKey).(string); ok {
		return v
	}
	return ""
}

// CountryFromContext returns the ISO country code resolved for the request.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryKey).(string); ok {
		return v
	}
	return ""
}

func resolveCountry(r *http.Request, ip string, resolver geoip.CountryResolver) string {
	headerHints := []string{"X-Country-Code", "CF-IPCountry", "X-Appengine-Country"}
	for _, key := range headerHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if resolver != nil && ip != "" {
		if country, err := resolver.CountryCode(ip); err == nil && country != "" {
			return strings.ToUpper(country)
		}
	}
	return acceptLanguageRegion(r.Header.Get("Accept-Language"))
}

// acceptLanguageRegion falls back to the region of the caller's preferred
// language tag, e.g. "de-CH" yields "CH".
func acceptLanguageRegion(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	// Only trust regions the caller stated explicitly, not ones inferred
	// from the language alone.
	region, conf := tags[0].Region()
	if conf != language.Exact || !region.IsCountry() {
		return ""
	}
	return strings.ToUpper(region.String())
}
