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

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the per-cluster prometheus collectors referenced by the
// Testable Properties' "queued gauge" (§8 scenario 5) and the dropped/
// retries/in_flight counters implied by the controller's policies (§4.11).
type metrics struct {
	queued   *prometheus.GaugeVec
	inFlight *prometheus.GaugeVec
	dropped  *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

func newMetrics(clusterName string) *metrics {
	labels := []string{"cluster", "bucket"}
	m := &metrics{
		queued: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "x0d", Subsystem: "cluster", Name: "queued",
			Help: "Requests currently waiting in a bucket's FIFO.",
		}, labels),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "x0d", Subsystem: "cluster", Name: "in_flight",
			Help: "Requests currently being served by a member.",
		}, []string{"cluster", "member"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "x0d", Subsystem: "cluster", Name: "dropped_total",
			Help: "Requests dropped after exhausting the retry budget.",
		}, []string{"cluster"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "x0d", Subsystem: "cluster", Name: "retries_total",
			Help: "Reschedule attempts across members.",
		}, []string{"cluster"}),
	}
	return m
}

// Register adds m's collectors to reg. Re-registration (e.g. multiple test
// runs against the default registry) is tolerated by ignoring AlreadyRegisteredError.
func (m *metrics) Register(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{m.queued, m.inFlight, m.dropped, m.retries} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
