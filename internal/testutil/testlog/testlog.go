package testlog

import (
	"testing"

	"github.com/dwyl/smart-home-security-system/internal/logging"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	logging.Infof("test=%s", t.Name())
}
