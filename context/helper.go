package context

import (
	"errors"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/utils/helpers"
)

// DependencyStatus represents the health of a single dependency.
type DependencyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewDependencyStatus creates a new instance of DependencyStatus.
func NewDependencyStatus(status, message string) DependencyStatus {
	return DependencyStatus{Status: status, Message: message}
}

// DependencyDetails reports the health of every dependency of a run.
type DependencyDetails struct {
	Logger  DependencyStatus `json:"logger,omitzero"`
	Metrics DependencyStatus `json:"metrics,omitzero"`
	Nats    DependencyStatus `json:"nats,omitzero"`
}

func healthy(name string) string {
	return name + " is healthy"
}

// CheckDependencies checks the health of the dependencies and returns the
// overall status, "OK" or "FAIL".
func (ctx *AppContext) CheckDependencies() (string, DependencyDetails) {
	var err error
	details := DependencyDetails{}

	logHealth := NewDependencyStatus("OK", healthy("Logger"))
	if ctx.Log == nil {
		err = errors.New("logger is empty")
		ctx.Log = log.NewBasicLogger(helpers.IsProdEnvironment())
		ctx.Log.Error("Dependency check failed", log.Err(err))
		logHealth = NewDependencyStatus("FAIL", err.Error())
	}
	details.Logger = logHealth

	metricsHealth := NewDependencyStatus("OK", healthy("Metrics collector"))
	if ctx.metrics == nil {
		err = errors.New("metrics collector is empty")
		ctx.Log.Error("Dependency check failed", log.Err(err))
		metricsHealth = NewDependencyStatus("FAIL", err.Error())
	}
	details.Metrics = metricsHealth

	if ctx.events != nil {
		natsHealth := NewDependencyStatus("OK", healthy("NATS Manager"))
		if pingErr := ctx.events.Ping(); pingErr != nil {
			err = pingErr
			ctx.Log.Error("Dependency check failed", log.Err(err))
			natsHealth = NewDependencyStatus("FAIL", err.Error())
		}
		details.Nats = natsHealth
	}

	if err != nil {
		return "FAIL", details
	}
	return "OK", details
}
