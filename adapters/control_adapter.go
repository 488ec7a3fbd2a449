// Package adapters
// Author: momentics <momentics@gmail.com>
//
// api.Control backed by the control package: config snapshot, server metrics
// and debug probes behind one facade.

package adapters

import (
	"github.com/momentics/hioload-http/api"
	"github.com/momentics/hioload-http/control"
)

// ControlAdapter is the server's control plane.
type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
}

// NewControlAdapter builds a control plane with the platform probes registered.
func NewControlAdapter() api.Control {
	ca := &ControlAdapter{
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		probes:  control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(ca.probes)
	return ca
}

func (ca *ControlAdapter) GetConfig() map[string]any { return ca.config.GetSnapshot() }

func (ca *ControlAdapter) SetConfig(cfg map[string]any) error {
	ca.config.SetConfig(cfg)
	return nil
}

// Stats reports metrics as stored, probe results under "debug." and the
// config revision under "config.version".
func (ca *ControlAdapter) Stats() map[string]any {
	out := ca.metrics.GetSnapshot()
	for name, v := range ca.probes.DumpState() {
		out["debug."+name] = v
	}
	out["config.version"] = ca.config.Version()
	return out
}

func (ca *ControlAdapter) SetMetric(key string, value any) { ca.metrics.Set(key, value) }

func (ca *ControlAdapter) AddMetric(key string, delta int64) { ca.metrics.Add(key, delta) }

func (ca *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	ca.probes.RegisterProbe(name, fn)
}
