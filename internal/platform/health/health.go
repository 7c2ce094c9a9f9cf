// Package health exposes GET /health backed by health-go checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hellofresh/health-go/v5"
)

const checkTimeout = 3 * time.Second

// Check is one named dependency probe. Optional checks degrade the status
// instead of failing it.
type Check struct {
	Name     string
	Optional bool
	Probe    func(ctx context.Context) error
}

// Checker measures the registered checks.
type Checker struct {
	h *health.Health
}

// New builds a checker for the participant component.
func New(participant, version string, checks ...Check) (*Checker, error) {
	cfgs := make([]health.Config, 0, len(checks))
	for _, c := range checks {
		cfgs = append(cfgs, health.Config{
			Name:      c.Name,
			Timeout:   checkTimeout,
			SkipOnErr: c.Optional,
			Check:     c.Probe,
		})
	}
	h, err := health.New(
		health.WithComponent(health.Component{Name: "idsim-" + participant, Version: version}),
		health.WithChecks(cfgs...),
	)
	if err != nil {
		return nil, err
	}
	return &Checker{h: h}, nil
}

// ServeHTTP answers 200 when healthy or degraded, 503 otherwise.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result := c.h.Measure(r.Context())
	status := http.StatusOK
	if result.Status == health.StatusUnavailable {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}
