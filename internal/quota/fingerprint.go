package quota

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// SessionCookie is the durable session token consulted when present.
const SessionCookie = "cf_session"

// Fingerprint identifies an unauthenticated caller by a combination of
// network address, client-identifying header and any durable session token.
type Fingerprint struct {
	IP        string
	ClientKey string
	Session   string
}

// FromRequest derives the caller fingerprint for r.
func FromRequest(r *http.Request) Fingerprint {
	fp := Fingerprint{IP: clientIP(r)}
	if v := strings.TrimSpace(r.Header.Get("X-Client-ID")); v != "" {
		fp.ClientKey = v
	} else {
		fp.ClientKey = strings.TrimSpace(r.Header.Get("User-Agent"))
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		fp.Session = cookie.Value
	}
	return fp
}

// Key returns a stable opaque store key. Components are hashed so raw
// addresses and tokens never appear in the store or logs.
func (f Fingerprint) Key() string {
	sum := sha256.Sum256([]byte(f.IP + "\x00" + f.ClientKey + "\x00" + f.Session))
	return hex.EncodeToString(sum[:16])
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
