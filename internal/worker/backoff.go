package worker

import (
	"errors"
	"math/rand"
	"time"
)

type BackoffConfig struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

var DefaultBackoffConfig = BackoffConfig{
	BaseDelay: 5 * time.Second,
	MaxDelay:  10 * time.Minute,
}

// EqualJitter devolve um atraso em [exp/2, exp), onde exp dobra a cada
// tentativa e nunca passa de MaxDelay.
func EqualJitter(attempt int, cfg BackoffConfig) time.Duration {
	if attempt <= 0 {
		return cfg.BaseDelay
	}
	if attempt > 30 {
		attempt = 30
	}

	exp := min(cfg.BaseDelay*time.Duration(1<<attempt), cfg.MaxDelay)
	if exp <= 0 {
		return cfg.BaseDelay
	}

	half := exp / 2
	if half <= 0 {
		return exp
	}
	return half + time.Duration(rand.Int63n(int64(exp-half)))
}

// permanentError marca falhas que nenhuma nova tentativa resolve: payload
// inválido, profissional inexistente, turno apagado.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
