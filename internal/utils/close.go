package utils

import (
	"io"

	"github.com/MrSnakeDoc/chs/internal/logger"
)

// CloseLogged closes c and logs the outcome under the given component name.
func CloseLogged(c io.Closer, name string, log logger.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("component", name), logger.Error(err))
		return
	}
	log.Info("closed cleanly", logger.String("component", name))
}
