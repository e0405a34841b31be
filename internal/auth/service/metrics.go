package service

import (
	"time"

	"github.com/devnla/backend-express/internal/observability/metrics"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

func recordRegistration(result string) {
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()
}

func recordLogin(result string) {
	metrics.LoginsTotal.WithLabelValues(result).Inc()
}

func incrementAccessTokensIssued() {
	metrics.AccessTokensIssued.Inc()
}

func observePasswordHash(operation string, start time.Time) {
	metrics.PasswordHashDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func recordTokenValidation(err error) {
	metrics.TokenValidationsTotal.WithLabelValues(outcome(err)).Inc()
}
