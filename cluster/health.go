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
	"net/http"
	"sync"
	"time"

	"github.com/nabbar/x0d/duration"
	"github.com/nabbar/x0d/logger"
)

// HealthState is one position in the Undefined -> Offline <-> Online state
// machine (§4.10).
type HealthState int

const (
	HealthUndefined HealthState = iota
	HealthOffline
	HealthOnline
)

func (s HealthState) String() string {
	switch s {
	case HealthOffline:
		return "offline"
	case HealthOnline:
		return "online"
	default:
		return "undefined"
	}
}

// defaultSuccessCodes is the original's default accepted-status set (§12
// supplement: "the original defaults to {200, 204, 301, 302, 307, 308} when
// unconfigured").
var defaultSuccessCodes = map[int]bool{200: true, 204: true, 301: true, 302: true, 307: true, 308: true}

// HealthConfig configures one Member's probe (§6 [backend=NAME] health
// fields).
type HealthConfig struct {
	Interval        duration.Duration `mapstructure:"health_check_interval" json:"health_check_interval" yaml:"health_check_interval" toml:"health_check_interval"`
	Timeout         duration.Duration `mapstructure:"health_check_timeout" json:"health_check_timeout" yaml:"health_check_timeout" toml:"health_check_timeout"`
	Path            string            `mapstructure:"health_check_path" json:"health_check_path" yaml:"health_check_path" toml:"health_check_path"`
	Host            string            `mapstructure:"health_check_host" json:"health_check_host" yaml:"health_check_host" toml:"health_check_host"`
	SuccessThreshold int              `mapstructure:"success_threshold" json:"success_threshold" yaml:"success_threshold" toml:"success_threshold" validate:"min=0"`
	SuccessCodes    []int             `mapstructure:"success_codes" json:"success_codes" yaml:"success_codes" toml:"success_codes"`
	StickyOffline   bool              `mapstructure:"sticky_offline_mode" json:"sticky_offline_mode" yaml:"sticky_offline_mode" toml:"sticky_offline_mode"`
}

func (c HealthConfig) successCodes() map[int]bool {
	if len(c.SuccessCodes) == 0 {
		return defaultSuccessCodes
	}
	out := make(map[int]bool, len(c.SuccessCodes))
	for _, code := range c.SuccessCodes {
		out[code] = true
	}
	return out
}

func (c HealthConfig) threshold() int {
	if c.SuccessThreshold <= 0 {
		return 1
	}
	return c.SuccessThreshold
}

// TransitionFunc is invoked on every Offline<->Online transition so the
// owning Controller can resize the shaper and requeue or disable the
// member (§4.10: "notify the cluster").
type TransitionFunc func(m *Member, newState HealthState)

// Monitor probes one Member on a fixed interval and drives its health
// state machine (§4.10).
type Monitor struct {
	member *Member
	cfg    HealthConfig
	client *http.Client
	log    logger.Logger

	mu          sync.Mutex
	state       HealthState
	consecutive int

	onTransition TransitionFunc

	stop chan struct{}
	done chan struct{}
}

func NewMonitor(m *Member, cfg HealthConfig, onTransition TransitionFunc, log logger.Logger) *Monitor {
	if log == nil {
		log = logger.Discard()
	}
	timeout := cfg.Timeout.Time()
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Monitor{
		member:       m,
		cfg:          cfg,
		client:       &http.Client{Timeout: timeout},
		log:          log,
		state:        HealthUndefined,
		onTransition: onTransition,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (mon *Monitor) State() HealthState {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return mon.state
}

// Start runs the probe loop until Stop is called. Intended to run on its
// own goroutine, one per member.
func (mon *Monitor) Start() {
	interval := mon.cfg.Interval.Time()
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(mon.done)

	for {
		select {
		case <-mon.stop:
			return
		case <-ticker.C:
			mon.probeOnce()
		}
	}
}

func (mon *Monitor) Stop() {
	close(mon.stop)
	<-mon.done
}

func (mon *Monitor) probeOnce() {
	ok := mon.probe()
	mon.record(ok)
}

func (mon *Monitor) probe() bool {
	cfg := mon.member.Config()
	url := cfg.Address() + mon.cfg.Path
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	if mon.cfg.Host != "" {
		req.Host = mon.cfg.Host
	}

	resp, err := mon.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return mon.cfg.successCodes()[resp.StatusCode]
}

// record applies one probe result to the state machine: "Offline -> Online
// after success-threshold consecutive successes; Online -> Offline
// immediately on any failure" (§4.10).
func (mon *Monitor) record(success bool) {
	mon.mu.Lock()
	prev := mon.state

	var next HealthState
	if success {
		mon.consecutive++
		if prev == HealthOnline || mon.consecutive >= mon.cfg.threshold() {
			next = HealthOnline
		} else {
			next = HealthOffline
		}
	} else {
		mon.consecutive = 0
		next = HealthOffline
	}
	mon.state = next
	mon.mu.Unlock()

	if next != prev {
		mon.member.SetOnline(next == HealthOnline)
		if mon.onTransition != nil {
			mon.onTransition(mon.member, next)
		}
	}
}
