/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package cluster

import (
	"sync"

	x0derr "github.com/nabbar/x0d/errors"
	"github.com/nabbar/x0d/reqctx"
)

const managerErrWhere = "cluster.manager"

// Manager holds every named cluster a Flow program's `proxy.cluster NAME`
// calls may address, and implements builtin.ClusterProxy by dispatching on
// NAME (§6 "proxy.cluster NAME[, PATH, BUCKET, BACKEND]").
type Manager struct {
	mu       sync.RWMutex
	clusters map[string]*Controller
}

func NewManager() *Manager {
	return &Manager{clusters: map[string]*Controller{}}
}

func (m *Manager) Add(c *Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clusters[c.name] = c
}

func (m *Manager) Get(name string) (*Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clusters[name]
	return c, ok
}

func (m *Manager) All() []*Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Controller, 0, len(m.clusters))
	for _, c := range m.clusters {
		out = append(out, c)
	}
	return out
}

// Schedule implements builtin.ClusterProxy.
func (m *Manager) Schedule(clusterName, path, bucket, backend string, ctx *reqctx.Context) error {
	c, ok := m.Get(clusterName)
	if !ok {
		return x0derr.New(x0derr.ConfigurationError, managerErrWhere, "unknown cluster %q", clusterName)
	}
	return c.Schedule(path, bucket, backend, ctx)
}
