package helpers

import (
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewLogger creates a configured Logrus logger
func NewLogger(appName, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	switch env {
	case "development":
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "test":
		logger.SetOutput(io.Discard)
	default:
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.WithFields(logrus.Fields{"app": appName, "env": env}).Info("logger initialized")
	return logger
}

// RequestEntry returns an entry tagged with the request id, route and caller (when authenticated).
// A nil logger yields an entry that discards everything.
func RequestEntry(logger *logrus.Logger, c *gin.Context) *logrus.Entry {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	fields := logrus.Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"route":      c.FullPath(),
	}
	if uid := c.GetString("userID"); uid != "" {
		fields["user_id"] = uid
	}
	return logger.WithFields(fields)
}
