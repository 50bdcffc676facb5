// Package logout реализует выход пользователя: удаляет cookie с токеном.
package logout

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/elearning-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
)

// New возвращает обработчик выхода.
//
// @Summary Выход
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func New(cookie middlewarectx.CookieSettings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middlewarectx.ClearTokenCookie(w, cookie)
		render.JSON(w, r, response.OKWithData(map[string]string{"message": "logged out"}))
	}
}
