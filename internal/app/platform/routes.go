package platform

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger-документации.
	_ "github.com/magabrotheeeer/elearning-platform/docs"
	admincategories "github.com/magabrotheeeer/elearning-platform/internal/http/handlers/admin/categories"
	admincourses "github.com/magabrotheeeer/elearning-platform/internal/http/handlers/admin/courses"
	adminhealthy "github.com/magabrotheeeer/elearning-platform/internal/http/handlers/admin/healthy"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/admin/images"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/admin/lessons"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/admin/packs"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/admin/promotions"
	adminusers "github.com/magabrotheeeer/elearning-platform/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/courses/categories"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/courses/categorypacks"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/courses/course"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/courses/lesson"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/courses/packcourses"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/courses/packdetail"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/courses/purchase"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/dashboard"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/health"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/healthy"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/subscriptions/capture"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/subscriptions/mine"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/subscriptions/paypalwebhook"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/users/changepassword"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/users/profile"
	"github.com/magabrotheeeer/elearning-platform/internal/http/handlers/users/updateprofile"
	"github.com/magabrotheeeer/elearning-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/metrics"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	access "github.com/magabrotheeeer/elearning-platform/internal/services/access"
	catalog "github.com/magabrotheeeer/elearning-platform/internal/services/catalog"
	dashboardservice "github.com/magabrotheeeer/elearning-platform/internal/services/dashboard"
	healthyservice "github.com/magabrotheeeer/elearning-platform/internal/services/healthy"
	promotion "github.com/magabrotheeeer/elearning-platform/internal/services/promotion"
	purchaseservice "github.com/magabrotheeeer/elearning-platform/internal/services/purchase"
	subscription "github.com/magabrotheeeer/elearning-platform/internal/services/subscription"
	user "github.com/magabrotheeeer/elearning-platform/internal/services/user"
	webhook "github.com/magabrotheeeer/elearning-platform/internal/services/webhook"
)

// Access уровень доступа маршрута.
type Access int

const (
	Public Access = iota
	Authenticated
	Admin
)

func (a Access) String() string {
	switch a {
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return "public"
	}
}

// Route описание одного маршрута API.
type Route struct {
	Method  string
	Pattern string
	Access  Access
	// Limited включает ограничение частоты запросов.
	Limited bool
	Handler http.HandlerFunc
}

// AuthService нужен маршрутам и middleware аутентификации.
type AuthService interface {
	middlewarectx.Authenticator
	register.Service
	login.Service
	forgotpassword.Service
	resetpassword.Service
}

// Deps зависимости HTTP-слоя.
type Deps struct {
	Log           *slog.Logger
	Auth          AuthService
	Users         *user.UserService
	Catalog       *catalog.CatalogService
	Access        *access.AccessService
	Purchases     *purchaseservice.PurchaseService
	Subscriptions *subscription.SubscriptionService
	Webhooks      *webhook.WebhookService
	Promotions    *promotion.PromotionService
	Healthy       *healthyservice.HealthyService
	Dashboard     *dashboardservice.DashboardService
	DB            health.Pinger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Cookie        middlewarectx.CookieSettings
	CORSOrigins   []string
	RateRPS       float64
	RateBurst     int
}

// Routes единая таблица маршрутов API относительно /api.
func Routes(d Deps) []Route {
	log := d.Log

	adminUsers := adminusers.New(log, d.Users)
	adminCategories := admincategories.New(log, d.Catalog)
	adminPacks := packs.New(log, d.Catalog)
	adminCourses := admincourses.New(log, d.Catalog)
	adminLessons := lessons.New(log, d.Catalog)
	adminImages := images.New(log, d.Catalog)
	adminPromotions := promotions.New(log, d.Promotions)
	adminHealthy := adminhealthy.New(log, d.Healthy)
	publicHealthy := healthy.New(log, d.Healthy)

	return []Route{
		// auth
		{http.MethodPost, "/auth/register", Public, true, register.New(log, d.Auth, d.Cookie).ServeHTTP},
		{http.MethodPost, "/auth/login", Public, true, login.New(log, d.Auth, d.Cookie).ServeHTTP},
		{http.MethodPost, "/auth/logout", Public, false, logout.New(d.Cookie)},
		{http.MethodPost, "/auth/forgot-password", Public, true, forgotpassword.New(log, d.Auth).ServeHTTP},
		{http.MethodPost, "/auth/reset-password", Public, true, resetpassword.New(log, d.Auth).ServeHTTP},

		// users
		{http.MethodGet, "/users/me", Authenticated, false, profile.New(log, d.Users).ServeHTTP},
		{http.MethodPatch, "/users/me", Authenticated, false, updateprofile.New(log, d.Users).ServeHTTP},
		{http.MethodPut, "/users/me/password", Authenticated, false, changepassword.New(log, d.Users).ServeHTTP},
		{http.MethodGet, "/users/admin", Admin, false, adminUsers.List},

		// courses
		{http.MethodGet, "/courses/categories", Public, false, categories.New(log, d.Catalog).ServeHTTP},
		{http.MethodGet, "/courses/categories/{category}/packs", Public, false, categorypacks.New(log, d.Catalog).ServeHTTP},
		{http.MethodGet, "/courses/packs/{id}", Public, false, packdetail.New(log, d.Catalog).ServeHTTP},
		{http.MethodPost, "/courses/packs/{id}/purchase", Authenticated, false, purchase.New(log, d.Purchases, true).ServeHTTP},
		{http.MethodGet, "/courses/packs/{id}/courses", Authenticated, false, packcourses.New(log, d.Catalog, d.Access).ServeHTTP},
		{http.MethodGet, "/courses/{id}", Authenticated, false, course.New(log, d.Access).ServeHTTP},
		{http.MethodGet, "/courses/{id}/lessons/{lessonId}", Authenticated, false, lesson.New(log, d.Access).ServeHTTP},

		// subscriptions
		{http.MethodPost, "/subscriptions/subscribe", Authenticated, false, purchase.New(log, d.Purchases, false).ServeHTTP},
		{http.MethodPost, "/subscriptions/capture", Authenticated, false, capture.New(log, d.Purchases).ServeHTTP},
		{http.MethodGet, "/subscriptions/me", Authenticated, false, mine.New(log, d.Subscriptions).ServeHTTP},
		{http.MethodPost, "/subscriptions/paypal-webhook", Public, false, paypalwebhook.New(log, d.Webhooks).ServeHTTP},

		// admin
		{http.MethodGet, "/admin/users", Admin, false, adminUsers.List},
		{http.MethodPatch, "/admin/users/{id}", Admin, false, adminUsers.Update},
		{http.MethodDelete, "/admin/users/{id}", Admin, false, adminUsers.Delete},

		{http.MethodGet, "/admin/categories", Admin, false, adminCategories.List},
		{http.MethodPost, "/admin/categories", Admin, false, adminCategories.Create},
		{http.MethodPatch, "/admin/categories/{id}", Admin, false, adminCategories.Update},
		{http.MethodDelete, "/admin/categories/{id}", Admin, false, adminCategories.Delete},

		{http.MethodGet, "/admin/packs", Admin, false, adminPacks.List},
		{http.MethodPost, "/admin/packs", Admin, false, adminPacks.Create},
		{http.MethodGet, "/admin/packs/{id}", Admin, false, adminPacks.Get},
		{http.MethodPatch, "/admin/packs/{id}", Admin, false, adminPacks.Update},
		{http.MethodDelete, "/admin/packs/{id}", Admin, false, adminPacks.Delete},

		{http.MethodGet, "/admin/courses", Admin, false, adminCourses.List},
		{http.MethodPost, "/admin/courses", Admin, false, adminCourses.Create},
		{http.MethodPatch, "/admin/courses/{id}", Admin, false, adminCourses.Update},
		{http.MethodDelete, "/admin/courses/{id}", Admin, false, adminCourses.Delete},

		{http.MethodGet, "/admin/courses/{courseId}/lessons", Admin, false, adminLessons.List},
		{http.MethodPost, "/admin/courses/{courseId}/lessons", Admin, false, adminLessons.Create},
		{http.MethodPatch, "/admin/lessons/{id}", Admin, false, adminLessons.Update},
		{http.MethodDelete, "/admin/lessons/{id}", Admin, false, adminLessons.Delete},

		{http.MethodGet, "/admin/courses/{courseId}/images", Admin, false, adminImages.List},
		{http.MethodPost, "/admin/courses/{courseId}/images", Admin, false, adminImages.Create},
		{http.MethodDelete, "/admin/courses/{courseId}/images/{id}", Admin, false, adminImages.Delete},

		{http.MethodGet, "/admin/promotions", Admin, false, adminPromotions.List},
		{http.MethodPost, "/admin/promotions", Admin, false, adminPromotions.Create},
		{http.MethodPatch, "/admin/promotions/{id}", Admin, false, adminPromotions.Update},
		{http.MethodDelete, "/admin/promotions/{id}", Admin, false, adminPromotions.Delete},

		{http.MethodGet, "/admin/healthy-packages", Admin, false, adminHealthy.List},
		{http.MethodPost, "/admin/healthy-packages", Admin, false, adminHealthy.Create},
		{http.MethodPatch, "/admin/healthy-packages/{id}", Admin, false, adminHealthy.Update},
		{http.MethodDelete, "/admin/healthy-packages/{id}", Admin, false, adminHealthy.Delete},
		{http.MethodGet, "/admin/healthy-prices", Admin, false, adminHealthy.GetPrice},
		{http.MethodPut, "/admin/healthy-prices", Admin, false, adminHealthy.SetPrice},

		// healthy
		{http.MethodGet, "/healthy-packages", Public, false, publicHealthy.Packages},
		{http.MethodGet, "/healthy-prices", Public, false, publicHealthy.Prices},

		{http.MethodGet, "/dashboard/stats", Admin, false, dashboard.New(log, d.Dashboard).ServeHTTP},
		{http.MethodGet, "/health", Public, false, health.New(log, d.DB).ServeHTTP},
	}
}

// NewRouter собирает chi-роутер из таблицы Routes.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middlewarectx.Recoverer(d.Log),
	)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middlewarectx.Auth(d.Auth, d.Cookie.Name, d.Log)
	requireAdmin := middlewarectx.RequireRole(models.RoleAdmin, d.Log)
	limiter := middlewarectx.NewRateLimiter(d.RateRPS, d.RateBurst, d.Log)

	r.Route("/api", func(r chi.Router) {
		for _, rt := range Routes(d) {
			var h http.Handler = rt.Handler
			switch rt.Access {
			case Admin:
				h = authenticate(requireAdmin(h))
			case Authenticated:
				h = authenticate(h)
			}
			if rt.Limited {
				h = limiter.Middleware(h)
			}
			r.Method(rt.Method, rt.Pattern, h)
		}
	})

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)

	return r
}
