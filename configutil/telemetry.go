// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package configutil

import (
	"fmt"
	"time"

	"github.com/armon/go-metrics"
	"github.com/armon/go-metrics/prometheus"
	"github.com/hashicorp/errwrap"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"github.com/hashicorp/hcl"
	"github.com/hashicorp/hcl/hcl/ast"
	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	defaultInmemInterval = 10 * time.Second
	defaultInmemRetain   = time.Minute
)

// Telemetry is the telemetry configuration for the generator
type Telemetry struct {
	// ServiceName is prepended to every metric name when set.
	ServiceName string `hcl:"service_name"`

	DisableHostname     bool `hcl:"disable_hostname"`
	EnableHostnameLabel bool `hcl:"enable_hostname_label"`

	InmemInterval    time.Duration `hcl:"-"`
	InmemIntervalRaw interface{}   `hcl:"inmem_interval"`
	InmemRetain      time.Duration `hcl:"-"`
	InmemRetainRaw   interface{}   `hcl:"inmem_retain"`

	// PrometheusRetentionTime is how long a series is exported after its
	// last update. Zero disables the Prometheus sink.
	PrometheusRetentionTime    time.Duration `hcl:"-"`
	PrometheusRetentionTimeRaw interface{}   `hcl:"prometheus_retention_time"`
}

func parseTelemetry(result *Config, list *ast.ObjectList) error {
	if len(list.Items) > 1 {
		return fmt.Errorf("only one 'telemetry' block is permitted")
	}

	// Get our one item
	item := list.Items[0]

	if result.Telemetry == nil {
		result.Telemetry = &Telemetry{}
	}
	t := result.Telemetry
	if err := hcl.DecodeObject(t, item.Val); err != nil {
		return multierror.Prefix(err, "telemetry:")
	}

	var err error
	t.InmemInterval = defaultInmemInterval
	if t.InmemIntervalRaw != nil {
		if t.InmemInterval, err = parseutil.ParseDurationSecond(t.InmemIntervalRaw); err != nil {
			return errwrap.Wrapf("error parsing 'inmem_interval': {{err}}", err)
		}
		t.InmemIntervalRaw = nil
	}
	t.InmemRetain = defaultInmemRetain
	if t.InmemRetainRaw != nil {
		if t.InmemRetain, err = parseutil.ParseDurationSecond(t.InmemRetainRaw); err != nil {
			return errwrap.Wrapf("error parsing 'inmem_retain': {{err}}", err)
		}
		t.InmemRetainRaw = nil
	}
	if t.InmemInterval <= 0 || t.InmemRetain < t.InmemInterval {
		return fmt.Errorf("'inmem_retain' (%s) must be at least 'inmem_interval' (%s), which must be positive", t.InmemRetain, t.InmemInterval)
	}

	if t.PrometheusRetentionTimeRaw != nil {
		if t.PrometheusRetentionTime, err = parseutil.ParseDurationSecond(t.PrometheusRetentionTimeRaw); err != nil {
			return errwrap.Wrapf("error parsing 'prometheus_retention_time': {{err}}", err)
		}
		if t.PrometheusRetentionTime < 0 {
			return fmt.Errorf("'prometheus_retention_time' must not be negative")
		}
		t.PrometheusRetentionTimeRaw = nil
	}
	return nil
}

// Metrics builds the metrics pipeline described by the telemetry stanza. An
// in-memory sink is always included and returned so callers can report on
// what was recorded. The Prometheus sink, if enabled, registers with reg, or
// the default registerer when reg is nil. A nil Telemetry yields the
// defaults.
func (t *Telemetry) Metrics(reg prom.Registerer) (*metrics.Metrics, *metrics.InmemSink, error) {
	if t == nil {
		t = &Telemetry{InmemInterval: defaultInmemInterval, InmemRetain: defaultInmemRetain}
	}

	inm := metrics.NewInmemSink(t.InmemInterval, t.InmemRetain)
	fanout := metrics.FanoutSink{inm}

	if t.PrometheusRetentionTime > 0 {
		sink, err := prometheus.NewPrometheusSinkFrom(prometheus.PrometheusOpts{
			Expiration: t.PrometheusRetentionTime,
			Registerer: reg,
		})
		if err != nil {
			return nil, nil, errwrap.Wrapf("error creating prometheus sink: {{err}}", err)
		}
		fanout = append(fanout, sink)
	}

	conf := metrics.DefaultConfig(t.ServiceName)
	conf.EnableHostname = !t.DisableHostname
	conf.EnableHostnameLabel = t.EnableHostnameLabel
	conf.EnableRuntimeMetrics = false

	m, err := metrics.New(conf, fanout)
	if err != nil {
		return nil, nil, errwrap.Wrapf("error creating metrics: {{err}}", err)
	}
	return m, inm, nil
}

func (t *Telemetry) sanitized() map[string]interface{} {
	return map[string]interface{}{
		"service_name":              t.ServiceName,
		"disable_hostname":          t.DisableHostname,
		"enable_hostname_label":     t.EnableHostnameLabel,
		"inmem_interval":            t.InmemInterval,
		"inmem_retain":              t.InmemRetain,
		"prometheus_retention_time": t.PrometheusRetentionTime,
	}
}
