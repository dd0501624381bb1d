package middleware

import (
	"encoding/json"
	"strings"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

const (
	maxLoggedBody = 64 * 1024
	redacted      = "[REDACTED]"
)

var sensitiveFields = []string{"password", "token", "secret", "pwd", "code"}

// AuthLogging logs every request under one of prefixes together with its response status.
// Credentials, tokens and passcodes are redacted from both bodies.
func AuthLogging(log logrus.FieldLogger, prefixes ...string) echo.MiddlewareFunc {
	return echoMiddleware.BodyDumpWithConfig(echoMiddleware.BodyDumpConfig{
		Skipper: func(c echo.Context) bool {
			return !hasAnyPrefix(strings.ToLower(c.Request().URL.Path), prefixes)
		},
		Handler: func(c echo.Context, reqBody, resBody []byte) {
			log.WithFields(logrus.Fields{
				"method":   c.Request().Method,
				"path":     c.Request().URL.Path,
				"ip":       c.RealIP(),
				"status":   c.Response().Status,
				"request":  SanitizeJSON(reqBody),
				"response": SanitizeJSON(resBody),
			}).Info("auth request")
		},
	})
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func isSensitiveField(name string) bool {
	name = strings.ToLower(name)
	for _, f := range sensitiveFields {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}

// SanitizeJSON redacts sensitive top-level fields of a JSON object.
// Bodies that are not JSON objects are only truncated.
func SanitizeJSON(body []byte) string {
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody]
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return truncate(trimmed, 1000)
	}
	for name := range fields {
		if isSensitiveField(name) {
			fields[name] = json.RawMessage(`"` + redacted + `"`)
		}
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
