package middleware

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/sirupsen/logrus"
)

// RequestLogger logs one structured line per request through logrus.
// Server errors are logged at error level, client errors at warn.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogRemoteIP:  true,
        LogError:     true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            entry := log.WithFields(logrus.Fields{
                "method":     v.Method,
                "uri":        v.URI,
                "status":     v.Status,
                "latency_ms": v.Latency.Milliseconds(),
                "request_id": v.RequestID,
                "remote_ip":  v.RemoteIP,
            })
            if v.Error != nil {
                entry = entry.WithError(v.Error)
            }
            switch {
            case v.Status >= 500:
                entry.Error("request")
            case v.Status >= 400:
                entry.Warn("request")
            default:
                entry.Info("request")
            }
            return nil
        },
    })
}
