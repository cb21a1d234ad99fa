package environment

import (
	"context"
	"net/http"
)

// Service is an in-process server the runner can own.
type Service interface {
	Start() error
	Stop() error
	Addr() string
}

// Embedded runs the service under test inside the runner process.
type Embedded struct {
	Service    Service
	HealthPath string
	Client     *http.Client
}

func (e *Embedded) Start(context.Context) error { return e.Service.Start() }
func (e *Embedded) Stop(context.Context) error  { return e.Service.Stop() }

// IsHealthy checks HealthPath on the service's bound address.
func (e *Embedded) IsHealthy(ctx context.Context) bool {
	return CheckHealth(ctx, e.Client, e.BaseURL()+e.HealthPath)
}

// BaseURL returns the http base URL of the running service.
func (e *Embedded) BaseURL() string {
	return "http://" + e.Service.Addr()
}
