package middlewarectx

import (
	"net/http"
	"time"
)

// CookieSettings параметры cookie с токеном.
type CookieSettings struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// SetTokenCookie кладёт токен в httpOnly cookie.
func SetTokenCookie(w http.ResponseWriter, s CookieSettings, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.TTL.Seconds()),
	})
}

// ClearTokenCookie удаляет cookie с токеном.
func ClearTokenCookie(w http.ResponseWriter, s CookieSettings) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
