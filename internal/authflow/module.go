package authflow

import (
	"net/http"

	"github.com/shandysiswandi/aegis/internal/authflow/outbound/gateway"
	"github.com/shandysiswandi/aegis/internal/authflow/usecase"
	"github.com/shandysiswandi/aegis/internal/pkg/clock"
	"github.com/shandysiswandi/aegis/internal/pkg/config"
	"github.com/shandysiswandi/aegis/internal/pkg/instrument"
	"github.com/shandysiswandi/aegis/internal/pkg/uid"
	"github.com/shandysiswandi/aegis/internal/pkg/validator"
)

type Dependency struct {
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	// HTTPClient overrides the client built from config, mostly for tests.
	HTTPClient *http.Client
}

type gatewaySettings struct {
	BaseURL string `validate:"required,http_url"`
}

// New builds the enrollment and verification controllers against the
// gateway configured under client.gateway.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	settings := gatewaySettings{BaseURL: dep.Config.GetString("client.gateway.base_url")}
	if err := dep.Validator.Validate(settings); err != nil {
		return nil, err
	}

	httpClient := dep.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: dep.Config.GetSecond("client.gateway.timeout_seconds")}
	}

	opts := []uid.SessionOption{}
	if prefix := dep.Config.GetString("client.session.prefix"); prefix != "" {
		opts = append(opts, uid.WithSessionPrefix(prefix))
	}

	return usecase.New(usecase.Dependency{
		Gateway:    gateway.NewClient(settings.BaseURL, httpClient, dep.Instrument),
		Identity:   uid.NewSession(dep.Clock, opts...),
		Instrument: dep.Instrument,
	}), nil
}
