/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package metrics exports resolution, delivery and scope telemetry through
// Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/component"
)

// Collector implements apis.Hooks on a private Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	resolutions *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	created     *prometheus.CounterVec
	destroyed   *prometheus.CounterVec
	live        *prometheus.GaugeVec
}

// Ensure Collector implements apis.Hooks.
var _ apis.Hooks = (*Collector)(nil)

// NewCollector creates a collector whose metrics are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "inject"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of resolutions by descriptor kind and cache result",
		},
		[]string{"kind", "cache"},
	)

	c.deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "deliveries_total",
			Help:      "Total number of observer invocations by delivery discipline and result",
		},
		[]string{"delivery", "result"},
	)

	c.created = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scope",
			Name:      "instances_created_total",
			Help:      "Total number of instances stored by scope",
		},
		[]string{"scope"},
	)

	c.destroyed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scope",
			Name:      "instances_destroyed_total",
			Help:      "Total number of instances disposed by scope",
		},
		[]string{"scope"},
	)

	c.live = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scope",
			Name:      "instances",
			Help:      "Current number of stored instances by scope",
		},
		[]string{"scope"},
	)

	c.registry.MustRegister(c.resolutions, c.deliveries, c.created, c.destroyed, c.live)
	return c
}

// Registry returns the Prometheus registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Resolved records one resolution.
func (c *Collector) Resolved(kind component.Kind, hit bool) {
	cache := "miss"
	if hit {
		cache = "hit"
	}
	c.resolutions.WithLabelValues(kind.String(), cache).Inc()
}

// Delivered records one observer invocation.
func (c *Collector) Delivered(delivery component.Delivery, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.deliveries.WithLabelValues(delivery.String(), result).Inc()
}

// InstanceCreated records a stored instance.
func (c *Collector) InstanceCreated(scope string) {
	c.created.WithLabelValues(scope).Inc()
	c.live.WithLabelValues(scope).Inc()
}

// InstanceDestroyed records a disposed instance.
func (c *Collector) InstanceDestroyed(scope string) {
	c.destroyed.WithLabelValues(scope).Inc()
	c.live.WithLabelValues(scope).Dec()
}
