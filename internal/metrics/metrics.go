// Package metrics exposes Prometheus collectors for the HTTP layer and the
// storefront's domain events.  Collectors live on the default registry and
// are scraped through Handler at /metrics.
package metrics

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
    httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
        Namespace: namespace,
        Name:      "http_requests_total",
        Help:      "HTTP requests by method, route and status.",
    }, []string{"method", "route", "status"})

    httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
        Namespace: namespace,
        Name:      "http_request_duration_seconds",
        Help:      "HTTP request latency by method and route.",
        Buckets:   prometheus.DefBuckets,
    }, []string{"method", "route"})

    // Registrations counts successful sign-ups.
    Registrations = promauto.NewCounter(prometheus.CounterOpts{
        Namespace: namespace,
        Name:      "registrations_total",
        Help:      "Successful user registrations.",
    })

    // Logins counts successful logins by kind ("user" or "admin").
    Logins = promauto.NewCounterVec(prometheus.CounterOpts{
        Namespace: namespace,
        Name:      "logins_total",
        Help:      "Successful logins by kind.",
    }, []string{"kind"})

    // Purchases counts recorded purchases.
    Purchases = promauto.NewCounter(prometheus.CounterOpts{
        Namespace: namespace,
        Name:      "purchases_total",
        Help:      "Recorded game purchases.",
    })

    // GamesDeleted counts soft deletes.
    GamesDeleted = promauto.NewCounter(prometheus.CounterOpts{
        Namespace: namespace,
        Name:      "games_deleted_total",
        Help:      "Games soft-deleted from the catalog.",
    })

    // EventsDropped counts purchase events that never reached the broker.
    EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
        Namespace: namespace,
        Name:      "purchase_events_dropped_total",
        Help:      "Purchase events dropped because the buffer was full or publishing failed.",
    })
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware records request count and latency labelled by the matched route
// pattern, so /api/games/1 and /api/games/2 share a series.
func Middleware() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)

            status := c.Response().Status
            if err != nil {
                if he, ok := err.(*echo.HTTPError); ok {
                    status = he.Code
                }
            }
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            method := c.Request().Method
            httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
            httpLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
            return err
        }
    }
}
