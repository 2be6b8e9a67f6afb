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
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/http/httpguts"

	"github.com/nabbar/x0d/duration"
	x0derr "github.com/nabbar/x0d/errors"
	"github.com/nabbar/x0d/logger"
	"github.com/nabbar/x0d/reqctx"
)

const memberErrWhere = "cluster.member"

// hopByHop lists the headers the reverse proxy must strip before forwarding
// (§4.9): "Connection, Content-Length (rewritten), Keep-Alive, TE, Trailer,
// Transfer-Encoding, Upgrade, Close".
var hopByHop = []string{
	"Connection", "Content-Length", "Keep-Alive", "TE", "Trailer",
	"Transfer-Encoding", "Upgrade", "Close",
}

// MemberConfig is the static, config-supplied description of one upstream
// backend (§3 Member, §6 [backend=NAME]).
type MemberConfig struct {
	Name      string        `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`
	Host      string        `mapstructure:"host" json:"host" yaml:"host" toml:"host" validate:"required"`
	Port      int           `mapstructure:"port" json:"port" yaml:"port" toml:"port" validate:"required,min=1,max=65535"`
	Protocol  string        `mapstructure:"protocol" json:"protocol" yaml:"protocol" toml:"protocol"`
	Capacity  int           `mapstructure:"capacity" json:"capacity" yaml:"capacity" toml:"capacity" validate:"min=0"`
	Enabled   bool          `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	Protected bool          `mapstructure:"protected" json:"protected" yaml:"protected" toml:"protected"`
	Connect   duration.Duration `mapstructure:"connect_timeout" json:"connect_timeout" yaml:"connect_timeout" toml:"connect_timeout"`
	Read      duration.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout" toml:"read_timeout"`
	Write     duration.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout" toml:"write_timeout"`
}

func (c MemberConfig) Address() string {
	return fmt.Sprintf("%s://%s:%d", protoOrDefault(c.Protocol), c.Host, c.Port)
}

func protoOrDefault(p string) string {
	if p == "" {
		return "http"
	}
	return p
}

// Member is a live upstream backend (§3): its configuration plus mutable
// runtime state (health, in-flight count).
type Member struct {
	mu sync.RWMutex

	cfg    MemberConfig
	online bool

	inFlight int

	client *retryablehttp.Client
	log    logger.Logger
}

// NewMember builds a Member bound to cfg. It starts Offline (Undefined, per
// the health state machine) until the Health Monitor records its first
// probe result.
func NewMember(cfg MemberConfig, log logger.Logger) *Member {
	if log == nil {
		log = logger.Discard()
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 1
	rc.HTTPClient.Timeout = cfg.Read.Time()

	connectTimeout := cfg.Connect.Time()
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	dialer := &net.Dialer{Timeout: connectTimeout}
	rc.HTTPClient.Transport = &http.Transport{DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.DialContext(ctx, network, addr)
	}}

	return &Member{cfg: cfg, client: rc, log: log}
}

func (m *Member) Name() string   { return m.cfg.Name }
func (m *Member) Config() MemberConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// SetOnline records a Health Monitor transition.
func (m *Member) SetOnline(online bool) {
	m.mu.Lock()
	m.online = online
	m.mu.Unlock()
}

func (m *Member) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Usable reports whether the member may currently be scheduled to (§3
// invariant: "in-flight <= capacity when enabled and online").
func (m *Member) Usable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Enabled && m.online
}

// TryAcquire reserves one in-flight slot if capacity allows, returning
// whether the reservation succeeded.
func (m *Member) TryAcquire() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight >= m.cfg.Capacity {
		return false
	}
	m.inFlight++
	return true
}

// Release returns one in-flight slot, e.g. after a completed or failed
// upstream attempt.
func (m *Member) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight > 0 {
		m.inFlight--
	}
}

func (m *Member) InFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inFlight
}

// Remaining reports spare capacity, used by ChanceScheduler's weighting.
func (m *Member) Remaining() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Capacity - m.inFlight
}

// Forward issues the upstream HTTP request for ctx's inbound request and
// streams the response back into ctx.Response (§4.9). pseudonym is
// prepended into the Via response header together with the inbound HTTP
// protocol version.
func (m *Member) Forward(ctx *reqctx.Context, pseudonym string) error {
	cfg := m.Config()

	url := cfg.Address() + ctx.Request.URL.RequestURI()
	req, err := retryablehttp.NewRequest(ctx.Request.Method, url, ctx.Request.Body)
	if err != nil {
		return x0derr.Wrap(x0derr.UpstreamError, memberErrWhere, err, "build request to %s", cfg.Name)
	}
	req = req.WithContext(ctx)

	copyForwardableHeaders(ctx.Request.Header, req.Header)
	req.Header.Set("Via", fmt.Sprintf("%s %s", ctx.Request.Proto, pseudonym))

	resp, err := m.client.Do(req)
	if err != nil {
		return x0derr.Wrap(x0derr.UpstreamError, memberErrWhere, err, "member %s unreachable", cfg.Name)
	}
	defer resp.Body.Close()

	dst := ctx.Response.Header()
	for k, vs := range resp.Header {
		if isHopByHop(k) {
			continue
		}
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
	dst.Set("Via", fmt.Sprintf("%s %s", ctx.Request.Proto, pseudonym))
	if resp.ContentLength >= 0 {
		dst.Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}

	ctx.Response.WriteHeader(resp.StatusCode)
	ctx.SetStatus(resp.StatusCode)
	if _, err := io.Copy(ctx.Response, resp.Body); err != nil {
		return x0derr.Wrap(x0derr.UpstreamError, memberErrWhere, err, "streaming response from %s", cfg.Name)
	}
	return nil
}

func isHopByHop(header string) bool {
	if !httpguts.ValidHeaderFieldName(header) {
		return true
	}
	for _, h := range hopByHop {
		if strings.EqualFold(h, header) {
			return true
		}
	}
	return false
}

func copyForwardableHeaders(src, dst http.Header) {
	for k, vs := range src {
		if isHopByHop(k) {
			continue
		}
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

