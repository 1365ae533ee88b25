package server

import (
	"net/http"
	"time"
)

const (
	// sessionCookieName holds the wallet session token
	sessionCookieName = "bridge_session"
	// flowCookieName groups the pending authorization requests of one browser
	flowCookieName = "bridge_flow"
	// adminCookieName holds the signed admin token
	adminCookieName = "bridge_admin"
)

func (s *Server) newCookie(secure bool, name, value string, maxAge time.Duration, sameSite http.SameSite) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   int(maxAge.Seconds()),
	}
}

func (s *Server) sessionCookie(secure bool, token string) *http.Cookie {
	return s.newCookie(secure, sessionCookieName, token, s.config.GetMaxSessionAge(), http.SameSiteLaxMode)
}

func (s *Server) flowCookie(secure bool, flowID string) *http.Cookie {
	return s.newCookie(secure, flowCookieName, flowID, s.config.GetMaxSessionAge(), http.SameSiteLaxMode)
}

func (s *Server) adminCookie(secure bool, token string) *http.Cookie {
	return s.newCookie(secure, adminCookieName, token, s.config.GetAdminTokenExpiry(), http.SameSiteStrictMode)
}

// expiredCookie tells the browser to drop name
func (s *Server) expiredCookie(secure bool, name string) *http.Cookie {
	c := s.newCookie(secure, name, "", 0, http.SameSiteLaxMode)
	c.MaxAge = -1
	return c
}
