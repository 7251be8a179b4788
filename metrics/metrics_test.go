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

package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/inject/component"
	"dirpx.dev/inject/metrics"
)

func scrape(t *testing.T, c *metrics.Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollector_Exports(t *testing.T) {
	c := metrics.NewCollector("app")
	c.Resolved(component.Bean, false)
	c.Resolved(component.Bean, true)
	c.Resolved(component.Bean, true)
	c.Delivered(component.Async, errors.New("boom"))
	c.Delivered(component.Immediate, nil)
	c.InstanceCreated("request")
	c.InstanceCreated("request")
	c.InstanceDestroyed("request")

	body := scrape(t, c)
	assert.Contains(t, body, `app_resolver_resolutions_total{cache="hit",kind="Bean"} 2`)
	assert.Contains(t, body, `app_resolver_resolutions_total{cache="miss",kind="Bean"} 1`)
	assert.Contains(t, body, `app_notifier_deliveries_total{delivery="Async",result="error"} 1`)
	assert.Contains(t, body, `app_notifier_deliveries_total{delivery="Immediate",result="success"} 1`)
	assert.Contains(t, body, `app_scope_instances{scope="request"} 1`)
	assert.Contains(t, body, `app_scope_instances_created_total{scope="request"} 2`)
	assert.Contains(t, body, `app_scope_instances_destroyed_total{scope="request"} 1`)
}

func TestCollector_DefaultNamespace(t *testing.T) {
	c := metrics.NewCollector("")
	c.InstanceCreated("app")
	assert.Contains(t, scrape(t, c), `inject_scope_instances{scope="app"} 1`)

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
