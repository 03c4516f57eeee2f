package main

import (
	"time"

	"challan-backend/internal/api"
	"challan-backend/internal/app"
	"challan-backend/internal/components/chrono"
	"challan-backend/internal/components/telemetry"
	"challan-backend/internal/security"
)

type Guards struct {
	CSRF       *security.CSRF
	DeleteAuth *security.DeleteAuth

	challenges *security.LRUStore[string]
	sessions   *security.LRUStore[[]byte]
	attempts   *security.LRUStore[security.Attempts]
}

func InitSecurity(config app.SecurityConfig, timeAPI chrono.TimeAPI, cron chrono.CronAPI, tel telemetry.API) (Guards, error) {
	if config.DeletePassword == "" {
		tel.ReportWarning("security.delete-auth", "no delete password configured, deletion is disabled")
	}

	csrf, err := security.NewCSRF(config.CSRFSecret, time.Duration(config.CSRFTTLMinutes)*time.Minute, timeAPI)
	if err != nil {
		return Guards{}, err
	}

	guards := Guards{
		CSRF:       csrf,
		challenges: security.NewLRUStore[string](security.DefaultStoreSize, timeAPI),
		sessions:   security.NewLRUStore[[]byte](security.DefaultStoreSize, timeAPI),
		attempts:   security.NewAttemptStore(security.DefaultStoreSize, timeAPI),
	}
	guards.DeleteAuth, err = security.NewDeleteAuth(
		security.DeleteAuthConfig{
			Username:    config.DeleteUsername,
			Password:    config.DeletePassword,
			TokenSecret: config.DeleteTokenSecret,
		},
		guards.challenges,
		guards.sessions,
		security.NewAttemptLimiter(guards.attempts, security.LoginAttempts, security.LoginWindow, timeAPI),
		timeAPI,
	)
	if err != nil {
		return Guards{}, err
	}
	return guards, nil
}

// ScheduleSweeps reclaims expired entries of every security store periodically.
func ScheduleSweeps(cron chrono.CronAPI, spec string, tel telemetry.API, guards Guards, handler *api.Handler) error {
	stores := append(
		[]security.Sweeper{guards.challenges, guards.sessions, guards.attempts},
		handler.Sweepers()...,
	)
	return security.ScheduleSweep(cron, spec, telemetry.NewScopedAPI("security", tel), stores...)
}
