package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"go-gin-tasks/internal/domain"
)

const (
	resultSuccess  = "success"
	resultInvalid  = "invalid"
	resultDenied   = "denied"
	resultConflict = "conflict"
	resultError    = "error"
)

var authAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "auth_attempts_total", Help: "Signup and login attempts by outcome"},
	[]string{"op", "result"},
)

func init() { prometheus.MustRegister(authAttempts) }

func recordAuth(op, result string) { authAttempts.WithLabelValues(op, result).Inc() }

func resultOf(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return resultInvalid
	case errors.Is(err, domain.ErrInvalidCredentials):
		return resultDenied
	case errors.Is(err, domain.ErrEmailTaken):
		return resultConflict
	}
	return resultError
}
