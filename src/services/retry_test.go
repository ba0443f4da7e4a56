package services

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/TreyDong/notion-csv-importer/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestRetryPolicyDelay(t *testing.T) {
	policy := DefaultRetryPolicy(5, time.Second)

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"zero attempt", 0, 0},
		{"negative attempt", -1, 0},
		{"first retry", 1, time.Second},
		{"second retry", 2, 2 * time.Second},
		{"third retry", 3, 4 * time.Second},
		{"fifth retry", 5, 16 * time.Second},
		{"capped at max", 7, 30 * time.Second},
		{"way past cap", 20, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Delay(tt.attempt))
		})
	}
}

func TestRetryPolicyNoCap(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 3}
	assert.Equal(t, 9*time.Second, policy.Delay(3))
}
