// Package metrics метрики prometheus платформы.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор счётчиков и гистограмм сервиса.
type Metrics struct {
	HTTPDuration      *prometheus.HistogramVec
	CheckoutsTotal    *prometheus.CounterVec
	WebhookEvents     *prometheus.CounterVec
	SubscriptionsExt  prometheus.Counter
	ExpiredOnAccess   prometheus.Counter
	NotificationsSent *prometheus.CounterVec
}

// New регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "platform",
			Name:      "http_request_duration_seconds",
			Help:      "Длительность обработки HTTP-запросов.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		CheckoutsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platform",
			Name:      "checkouts_total",
			Help:      "Попытки оформления покупки по результату.",
		}, []string{"result"}),
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platform",
			Name:      "webhook_events_total",
			Help:      "События платёжного вебхука по типу и результату.",
		}, []string{"event_type", "result"}),
		SubscriptionsExt: f.NewCounter(prometheus.CounterOpts{
			Namespace: "platform",
			Name:      "subscription_extensions_total",
			Help:      "Продления подписок после оплаты.",
		}),
		ExpiredOnAccess: f.NewCounter(prometheus.CounterOpts{
			Namespace: "platform",
			Name:      "subscriptions_expired_total",
			Help:      "Подписки, переведённые в expired при обращении.",
		}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platform",
			Name:      "notifications_sent_total",
			Help:      "Отправленные письма по типу и результату.",
		}, []string{"kind", "result"}),
	}
}

// Middleware пишет длительность запроса с шаблоном маршрута chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
