package main

import (
	"os"
	"testing"

	"bostonhousing/internal/logging"
)

func TestMain(m *testing.M) {
	logging.ConfigureTests()
	os.Exit(m.Run())
}
