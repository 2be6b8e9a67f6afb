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
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"

	x0derr "github.com/nabbar/x0d/errors"
	"github.com/nabbar/x0d/logger"
	"github.com/nabbar/x0d/reqctx"
)

const controllerErrWhere = "cluster.controller"

// Controller glues the shaper, scheduler and members for one named cluster,
// implementing the public entrypoints builtins call through (§4.11):
// schedule, reschedule, enqueue.
type Controller struct {
	mu sync.RWMutex

	name string
	dir  DirectorConfig

	root    *Bucket
	buckets map[string]*Bucket

	members       []*Member
	membersByName map[string]*Member
	monitors      map[string]*Monitor

	scheduler Scheduler
	metrics   *metrics
	log       logger.Logger

	configPath string
	watcher    *fsnotify.Watcher
	watchStop  chan struct{}
}

// NewController builds a Controller from a validated Config, starting every
// member Offline (Undefined) until its Monitor records a first probe
// result, and spawning members and buckets as described by cfg (§4.11:
// "reload from it on startup, spawning members and buckets").
func NewController(name string, cfg *Config, log logger.Logger, reg prometheus.Registerer) (*Controller, error) {
	if log == nil {
		log = logger.Discard()
	}

	c := &Controller{
		name:          name,
		dir:           cfg.Director,
		buckets:       map[string]*Bucket{},
		membersByName: map[string]*Member{},
		monitors:      map[string]*Monitor{},
		scheduler:     NewScheduler(cfg.Director.Scheduler),
		metrics:       newMetrics(name),
		log:           log.WithFields(logger.Fields{"cluster": name}),
	}

	if reg != nil {
		c.metrics.Register(reg)
	}

	if err := c.buildBuckets(cfg.Buckets); err != nil {
		return nil, err
	}
	for _, mc := range cfg.Backends {
		c.addMember(mc)
	}

	c.resize()
	return c, nil
}

func (c *Controller) buildBuckets(defs map[string]BucketConfig) error {
	root := NewBucket(c.name, 1.0, 1.0, c.dir.QueueTimeout.Time())
	c.root = root
	c.buckets[c.name] = root

	pending := make(map[string]BucketConfig, len(defs))
	for name, b := range defs {
		pending[name] = b
	}

	for progress := true; len(pending) > 0 && progress; {
		progress = false
		for name, b := range pending {
			parentName := b.Parent
			if parentName == "" {
				parentName = c.name
			}
			parent, ok := c.buckets[parentName]
			if !ok {
				continue
			}
			child := NewBucket(name, b.Rate, b.Ceil, c.dir.QueueTimeout.Time())
			if err := parent.AddChild(child); err != nil {
				return err
			}
			c.buckets[name] = child
			delete(pending, name)
			progress = true
		}
	}
	if len(pending) > 0 {
		names := make([]string, 0, len(pending))
		for name := range pending {
			names = append(names, name)
		}
		return x0derr.New(x0derr.ConfigurationError, controllerErrWhere, "buckets reference unknown parents: %v", names)
	}
	return nil
}

func (c *Controller) addMember(mc MemberConfig) *Member {
	m := NewMember(mc, c.log)
	c.members = append(c.members, m)
	c.membersByName[mc.Name] = m

	hc := HealthConfig{
		Interval:         c.dir.HealthCheckInterval,
		Timeout:          c.dir.HealthCheckTimeout,
		Path:             c.dir.HealthCheckPath,
		SuccessThreshold: c.dir.SuccessThreshold,
		StickyOffline:    c.dir.StickyOfflineMode,
	}
	mon := NewMonitor(m, hc, c.onHealthTransition, c.log)
	c.monitors[mc.Name] = mon
	return m
}

// Member looks up one of the controller's backends by name, for admin
// tooling and manual enable/disable.
func (c *Controller) Member(name string) (*Member, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.membersByName[name]
	return m, ok
}

// StartMonitors launches one probe goroutine per member. Call Stop to tear
// them down (e.g. on daemon shutdown).
func (c *Controller) StartMonitors() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, mon := range c.monitors {
		go mon.Start()
	}
}

func (c *Controller) Stop() {
	c.mu.RLock()
	mons := make([]*Monitor, 0, len(c.monitors))
	for _, mon := range c.monitors {
		mons = append(mons, mon)
	}
	c.mu.RUnlock()

	for _, mon := range mons {
		mon.Stop()
	}
	c.stopWatch()
}

// onHealthTransition resizes the shaper's capacity and, on Online, wakes
// one waiting request per available slot; on Offline with
// sticky-offline-mode, the member is disabled until manually re-enabled
// (§4.10).
func (c *Controller) onHealthTransition(m *Member, state HealthState) {
	c.resize()
	c.log.WithFields(logger.Fields{"member": m.Name(), "state": state.String()}).Info("health transition")

	if state == HealthOnline {
		for i := 0; i < m.Config().Capacity; i++ {
			c.root.Dequeue()
		}
	} else if c.dir.StickyOfflineMode {
		cfg := m.Config()
		cfg.Enabled = false
		m.mu.Lock()
		m.cfg = cfg
		m.mu.Unlock()
	}
}

func (c *Controller) resize() {
	total := 0
	for _, m := range c.members {
		if m.Usable() {
			total += m.Config().Capacity
		}
	}
	c.root.Resize(total)
}

// Schedule is the single entrypoint for this controller, called with an
// optional bucket and backend override (§4.11). Manager implements
// builtin.ClusterProxy.Schedule: it picks the controller by cluster name
// and calls this.
func (c *Controller) Schedule(path, bucketName, backendName string, ctx *reqctx.Context) error {
	if !c.dir.Enabled {
		return c.serviceUnavailable(ctx, c.root)
	}
	// Size the root bucket from the members' current state, so members
	// switched online or enabled since the last resize count.
	c.resize()

	bucket := c.root
	if bucketName != "" {
		c.mu.RLock()
		if b, ok := c.buckets[bucketName]; ok {
			bucket = b
		}
		c.mu.RUnlock()
	}

	retries := 0
	for {
		if retries > c.dir.MaxRetryCount {
			c.metrics.dropped.WithLabelValues(c.name).Inc()
			return c.serviceUnavailable(ctx, bucket)
		}

		if !bucket.Get(1) {
			outcome, err := c.awaitOrReject(ctx, bucket)
			if outcome {
				retries++
				continue
			}
			return err
		}

		member, result := c.pick(backendName)
		if result != SchedSuccess {
			bucket.Put(1)
			outcome, err := c.awaitOrRejectResult(ctx, bucket)
			if outcome {
				retries++
				continue
			}
			return err
		}

		c.metrics.inFlight.WithLabelValues(c.name, member.Name()).Set(float64(member.InFlight()))
		err := member.Forward(ctx, c.pseudonym())
		member.Release()
		bucket.Put(1)
		bucket.Dequeue()

		if err != nil {
			retries++
			c.metrics.retries.WithLabelValues(c.name).Inc()
			if retries > c.dir.MaxRetryCount {
				c.metrics.dropped.WithLabelValues(c.name).Inc()
				return c.serviceUnavailable(ctx, bucket)
			}
			continue
		}
		return nil
	}
}

// Reschedule re-attempts the same request, consuming one unit of retry
// budget (§4.11 public entrypoint "reschedule(req)").
func (c *Controller) Reschedule(path, bucketName, backendName string, ctx *reqctx.Context) error {
	c.metrics.retries.WithLabelValues(c.name).Inc()
	return c.Schedule(path, bucketName, backendName, ctx)
}

// Enqueue is the public entrypoint builtins may call directly to force a
// wait instead of an immediate scheduling attempt.
func (c *Controller) Enqueue(bucketName string, ctx *reqctx.Context) error {
	c.mu.RLock()
	bucket, ok := c.buckets[bucketName]
	c.mu.RUnlock()
	if !ok {
		bucket = c.root
	}
	return c.wait(ctx, bucket)
}

func (c *Controller) pick(backendName string) (*Member, SchedResult) {
	if backendName != "" {
		c.mu.RLock()
		m, ok := c.membersByName[backendName]
		c.mu.RUnlock()
		if !ok {
			return nil, SchedUnavailable
		}
		if !m.Usable() {
			return nil, SchedUnavailable
		}
		if !m.TryAcquire() {
			return nil, SchedOverloaded
		}
		return m, SchedSuccess
	}

	c.mu.RLock()
	members := make([]*Member, len(c.members))
	copy(members, c.members)
	c.mu.RUnlock()
	return c.scheduler.Pick(members)
}

// awaitOrReject is reached when no token could be acquired at all; it either
// enqueues and blocks for queue-timeout or returns 503 immediately depending
// on policy. The bool return reports whether the caller should retry
// scheduling within the same retry budget (true, after a successful wait) or
// return err as-is (false, on immediate rejection or queue failure) — the
// caller loops rather than this method recursing into Schedule, so a single
// retry budget is enforced across every queue/retry cycle (§4.11 "Exceeding
// max_retry_count -> produce 503").
func (c *Controller) awaitOrReject(ctx *reqctx.Context, bucket *Bucket) (bool, error) {
	if !c.dir.EnqueueOnUnavailable && bucket.Exhausted() {
		return false, c.serviceUnavailable(ctx, bucket)
	}
	if err := c.wait(ctx, bucket); err != nil {
		return false, err
	}
	return true, nil
}

// awaitOrRejectResult handles the non-Success scheduler outcome: a token
// was available but no member could take it (Overloaded/Unavailable).
func (c *Controller) awaitOrRejectResult(ctx *reqctx.Context, bucket *Bucket) (bool, error) {
	if !c.dir.EnqueueOnUnavailable && bucket.Exhausted() {
		return false, c.serviceUnavailable(ctx, bucket)
	}
	if err := c.wait(ctx, bucket); err != nil {
		return false, err
	}
	return true, nil
}

// wait enqueues onto bucket and blocks until dequeued, the queue-timeout
// elapses, or the request Context is cancelled (§4.7, §5 cancellation).
func (c *Controller) wait(ctx *reqctx.Context, bucket *Bucket) error {
	c.metrics.queued.WithLabelValues(c.name, bucket.Name()).Inc()
	defer c.metrics.queued.WithLabelValues(c.name, bucket.Name()).Dec()

	ticket := bucket.Enqueue()
	select {
	case <-ticket.Done():
		if ticket.Expired() {
			return c.gatewayTimeout(ctx, bucket)
		}
		return nil
	case <-ctx.Done():
		ticket.Cancel(bucket)
		return x0derr.New(x0derr.RuntimeError, controllerErrWhere, "request context cancelled while queued")
	}
}

func (c *Controller) pseudonym() string {
	if c.dir.Pseudonym != "" {
		return c.dir.Pseudonym
	}
	return "x0d"
}

// serviceUnavailable produces the 503 response described in §4.11/§6:
// Retry-After when configured, and a Cluster-Bucket header naming the
// bucket that denied admission.
func (c *Controller) serviceUnavailable(ctx *reqctx.Context, bucket *Bucket) error {
	ctx.Response.Header().Set("Cluster-Bucket", bucket.Name())
	if ra := c.dir.RetryAfter.Time(); ra > 0 {
		ctx.Response.Header().Set("Retry-After", strconv.Itoa(int(ra.Seconds())))
	}
	ctx.SetStatus(http.StatusServiceUnavailable)
	ctx.Response.WriteHeader(http.StatusServiceUnavailable)
	fmt.Fprintf(ctx.Response, "503 Service Unavailable\n")
	return x0derr.New(x0derr.RetryExhausted, controllerErrWhere, "cluster %s: no usable member", c.name)
}

func (c *Controller) gatewayTimeout(ctx *reqctx.Context, bucket *Bucket) error {
	ctx.Response.Header().Set("Cluster-Bucket", bucket.Name())
	ctx.SetStatus(http.StatusGatewayTimeout)
	ctx.Response.WriteHeader(http.StatusGatewayTimeout)
	fmt.Fprintf(ctx.Response, "504 Gateway Timeout\n")
	return x0derr.New(x0derr.QueueTimeout, controllerErrWhere, "cluster %s: queue timeout in bucket %s", c.name, bucket.Name())
}

// jsonBucket/jsonMember are the WriteJSON wire shapes (§12 supplement:
// "Cluster.cc writes both an INI form ... and a JSON form ... of its live
// state").
type jsonBucket struct {
	Name   string `json:"name"`
	Rate   float64 `json:"rate"`
	Ceil   float64 `json:"ceil"`
	Tokens int     `json:"tokens"`
	Queued int     `json:"queued"`
}

type jsonMember struct {
	Name     string `json:"name"`
	Online   bool   `json:"online"`
	Enabled  bool   `json:"enabled"`
	Capacity int    `json:"capacity"`
	InFlight int    `json:"in_flight"`
}

type jsonDump struct {
	Name     string       `json:"name"`
	Buckets  []jsonBucket `json:"buckets"`
	Members  []jsonMember `json:"members"`
}

// WriteJSON renders the controller's live state for an admin/status
// endpoint, alongside the INI form Config.Save produces for persistence.
func (c *Controller) WriteJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dump := jsonDump{Name: c.name}
	for name, b := range c.buckets {
		dump.Buckets = append(dump.Buckets, jsonBucket{
			Name: name, Rate: b.rate, Ceil: b.ceil, Tokens: b.Tokens(), Queued: b.QueueLen(),
		})
	}
	for _, m := range c.members {
		cfg := m.Config()
		dump.Members = append(dump.Members, jsonMember{
			Name: m.Name(), Online: m.Online(), Enabled: cfg.Enabled, Capacity: cfg.Capacity, InFlight: m.InFlight(),
		})
	}
	return json.MarshalIndent(dump, "", "  ")
}

// WatchConfig watches path for out-of-band edits and invokes reload
// whenever the file changes, mirroring the ambient stack's fsnotify-driven
// live reload (§11).
func (c *Controller) WatchConfig(path string, reload func(*Config) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return x0derr.Wrap(x0derr.ConfigurationError, controllerErrWhere, err, "create watcher")
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return x0derr.Wrap(x0derr.ConfigurationError, controllerErrWhere, err, "watch %s", path)
	}

	c.configPath = path
	c.watcher = w
	c.watchStop = make(chan struct{})

	go func() {
		for {
			select {
			case <-c.watchStop:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadConfig(path)
				if err != nil {
					c.log.WithFields(logger.Fields{"error": err.Error()}).Warn("cluster config reload failed")
					continue
				}
				if err := reload(cfg); err != nil {
					c.log.WithFields(logger.Fields{"error": err.Error()}).Warn("cluster config reload rejected")
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				c.log.WithFields(logger.Fields{"error": err.Error()}).Warn("cluster config watch error")
			}
		}
	}()
	return nil
}

func (c *Controller) stopWatch() {
	if c.watcher == nil {
		return
	}
	close(c.watchStop)
	c.watcher.Close()
}
