// Package docs регистрирует swagger-описание API в swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        },
        "CookieAuth": {
            "type": "apiKey",
            "name": "token",
            "in": "cookie"
        }
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["Auth"], "summary": "Регистрация", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}, "400": {"description": "Bad Request"}}}},
        "/auth/login": {"post": {"tags": ["Auth"], "summary": "Вход", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"tags": ["Auth"], "summary": "Выход", "responses": {"200": {"description": "OK"}}}},
        "/auth/forgot-password": {"post": {"tags": ["Auth"], "summary": "Запрос сброса пароля", "responses": {"200": {"description": "OK"}}}},
        "/auth/reset-password": {"post": {"tags": ["Auth"], "summary": "Сброс пароля", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/users/me": {
            "get": {"tags": ["Users"], "summary": "Профиль", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "patch": {"tags": ["Users"], "summary": "Изменение профиля", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/users/me/password": {"put": {"tags": ["Users"], "summary": "Смена пароля", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/courses/categories": {"get": {"tags": ["Courses"], "summary": "Категории", "responses": {"200": {"description": "OK"}}}},
        "/courses/categories/{category}/packs": {"get": {"tags": ["Courses"], "summary": "Паки категории", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/courses/packs/{id}": {"get": {"tags": ["Courses"], "summary": "Пак", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/courses/packs/{id}/purchase": {"post": {"tags": ["Courses"], "summary": "Покупка пака", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/courses/packs/{id}/courses": {"get": {"tags": ["Courses"], "summary": "Курсы пака", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/courses/{id}": {"get": {"tags": ["Courses"], "summary": "Курс", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/courses/{id}/lessons/{lessonId}": {"get": {"tags": ["Courses"], "summary": "Урок", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/subscriptions/subscribe": {"post": {"tags": ["Subscriptions"], "summary": "Продление подписки", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/subscriptions/capture": {"post": {"tags": ["Subscriptions"], "summary": "Подтверждение оплаты", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/subscriptions/me": {"get": {"tags": ["Subscriptions"], "summary": "Мои подписки", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/subscriptions/paypal-webhook": {"post": {"tags": ["Subscriptions"], "summary": "Вебхук PayPal", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/healthy-packages": {"get": {"tags": ["Healthy"], "summary": "Healthy-пакеты", "responses": {"200": {"description": "OK"}}}},
        "/healthy-prices": {"get": {"tags": ["Healthy"], "summary": "Цены healthy-пакетов", "responses": {"200": {"description": "OK"}}}},
        "/dashboard/stats": {"get": {"tags": ["Admin"], "summary": "Статистика", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/health": {"get": {"tags": ["Health"], "summary": "Health", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}}
    }
}`

// SwaggerInfo метаданные описания API.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:4000",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "E-learning Platform API",
	Description:      "API платформы онлайн-курсов: каталог, покупки паков и подписки.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
