// Package challan drives the sewing input challan workflows of the ERP: create, search, preview
// and delete.
package challan

import (
	"context"
	"time"

	"challan-backend/internal/components/assert"
	"challan-backend/internal/components/chrono"
	"challan-backend/internal/components/tasks"
	"challan-backend/internal/components/telemetry"
	"challan-backend/internal/history"
	"challan-backend/internal/scrapers/erp"
)

const DefaultTimeout = 90 * time.Second

var DefaultCompanies = map[string]string{
	"1": "Cotton Club BD",
	"2": "Cotton Clothing",
	"3": "Tropical Knitex",
	"4": "Cotton Clout BD",
}

type Config struct {
	// Credentials are used to create challans.
	Credentials erp.Credentials
	// DeleteCredentials belong to a user with delete permission on the sewing input page.
	DeleteCredentials erp.Credentials
	// Timeout bounds one workflow call.
	Timeout   time.Duration
	Companies map[string]string
}

type Service struct {
	erp      *erp.Client
	history  history.Store
	executor tasks.Executor
	time     chrono.TimeAPI
	config   Config
	tel      telemetry.API
}

func NewService(
	client *erp.Client,
	store history.Store,
	executor tasks.Executor,
	timeAPI chrono.TimeAPI,
	config Config,
	tel telemetry.API,
) *Service {
	assert.NotNil(client, "client")
	assert.NotNil(store, "store")
	assert.NotNil(executor, "executor")
	assert.NotNil(timeAPI, "timeAPI")
	assert.NotNil(tel, "tel")

	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Companies == nil {
		config.Companies = DefaultCompanies
	}
	return &Service{
		erp:      client,
		history:  store,
		executor: executor,
		time:     timeAPI,
		config:   config,
		tel:      telemetry.NewScopedAPI("challan", tel),
	}
}

// CompanyName returns the display name of a company id, the id itself when unknown.
func (s *Service) CompanyName(companyID string) string {
	name, ok := s.config.Companies[companyID]
	if !ok {
		return companyID
	}
	return name
}

func (s *Service) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.Timeout)
}

// finish records the outcome of a workflow call and normalizes its error.
func (s *Service) finish(ctx context.Context, workflow string, err error) error {
	if err == nil {
		telemetry.RecordOutcome(ctx, workflow, "success")
		return nil
	}
	failure := AsFailure(err)
	telemetry.RecordOutcome(ctx, workflow, string(failure.Kind))
	return failure
}
