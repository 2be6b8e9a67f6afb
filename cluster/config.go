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
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/ini.v1"

	"github.com/nabbar/x0d/duration"
	x0derr "github.com/nabbar/x0d/errors"
)

const configErrWhere = "cluster.config"

// DirectorConfig is the `[director]` INI section (§6): cluster-wide policy
// knobs that apply across every bucket/member.
type DirectorConfig struct {
	Name                 string            `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`
	Enabled              bool              `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	QueueLimit           int               `mapstructure:"queue_limit" json:"queue_limit" yaml:"queue_limit" toml:"queue_limit" validate:"min=0"`
	QueueTimeout         duration.Duration `mapstructure:"queue_timeout" json:"queue_timeout" yaml:"queue_timeout" toml:"queue_timeout"`
	RetryAfter           duration.Duration `mapstructure:"retry_after" json:"retry_after" yaml:"retry_after" toml:"retry_after"`
	MaxRetryCount        int               `mapstructure:"max_retry_count" json:"max_retry_count" yaml:"max_retry_count" toml:"max_retry_count" validate:"min=0"`
	StickyOfflineMode    bool              `mapstructure:"sticky_offline_mode" json:"sticky_offline_mode" yaml:"sticky_offline_mode" toml:"sticky_offline_mode"`
	AllowXSendfile       bool              `mapstructure:"allow_x_sendfile" json:"allow_x_sendfile" yaml:"allow_x_sendfile" toml:"allow_x_sendfile"`
	EnqueueOnUnavailable bool              `mapstructure:"enqueue_on_unavailable" json:"enqueue_on_unavailable" yaml:"enqueue_on_unavailable" toml:"enqueue_on_unavailable"`
	ConnectTimeout       duration.Duration `mapstructure:"connect_timeout" json:"connect_timeout" yaml:"connect_timeout" toml:"connect_timeout"`
	ReadTimeout          duration.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout         duration.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout" toml:"write_timeout"`
	Scheduler            string            `mapstructure:"scheduler" json:"scheduler" yaml:"scheduler" toml:"scheduler"`
	Pseudonym            string            `mapstructure:"pseudonym" json:"pseudonym" yaml:"pseudonym" toml:"pseudonym"`

	HealthCheckInterval duration.Duration `mapstructure:"health_check_interval" json:"health_check_interval" yaml:"health_check_interval" toml:"health_check_interval"`
	HealthCheckTimeout  duration.Duration `mapstructure:"health_check_timeout" json:"health_check_timeout" yaml:"health_check_timeout" toml:"health_check_timeout"`
	HealthCheckPath     string            `mapstructure:"health_check_path" json:"health_check_path" yaml:"health_check_path" toml:"health_check_path"`
	SuccessThreshold    int               `mapstructure:"success_threshold" json:"success_threshold" yaml:"success_threshold" toml:"success_threshold" validate:"min=0"`
}

// BucketConfig is one `[bucket=NAME]` section.
type BucketConfig struct {
	Name   string  `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`
	Parent string  `mapstructure:"parent" json:"parent" yaml:"parent" toml:"parent"`
	Rate   float64 `mapstructure:"rate" json:"rate" yaml:"rate" toml:"rate" validate:"min=0,max=1"`
	Ceil   float64 `mapstructure:"ceil" json:"ceil" yaml:"ceil" toml:"ceil" validate:"min=0,max=1"`
}

// Config is the full persisted cluster document: director policy plus the
// bucket tree and backend set (§6 Cluster configuration).
type Config struct {
	Director DirectorConfig          `mapstructure:"director" json:"director" yaml:"director" toml:"director" validate:"required"`
	Buckets  map[string]BucketConfig `mapstructure:"buckets" json:"buckets" yaml:"buckets" toml:"buckets"`
	Backends map[string]MemberConfig `mapstructure:"backends" json:"backends" yaml:"backends" toml:"backends"`
}

// Validate runs struct-tag validation over the whole document, matching
// the teacher's Config.Validate pattern (aggregate every failing field
// into one ConfigurationError rather than stopping at the first).
func (c Config) Validate() error {
	val := validator.New()
	err := val.Struct(c)
	if err == nil {
		return nil
	}

	if _, ok := err.(*validator.InvalidValidationError); ok {
		return x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "invalid validation target")
	}

	out := x0derr.New(x0derr.ConfigurationError, configErrWhere, "cluster config validation failed")
	for _, e := range err.(validator.ValidationErrors) {
		out.Add(fmt.Errorf("field %q fails constraint %q", e.Namespace(), e.ActualTag()))
	}
	return out
}

// LoadConfig reads and validates a persisted cluster document from an
// INI file (§6, §11: gopkg.in/ini.v1 instead of hand-rolled INI parsing).
func LoadConfig(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "load %s", path)
	}

	cfg := &Config{Buckets: map[string]BucketConfig{}, Backends: map[string]MemberConfig{}}

	if sec, err := f.GetSection("director"); err == nil {
		if err := sec.MapTo(&cfg.Director); err != nil {
			return nil, x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "decode [director]")
		}
	}

	for _, sec := range f.Sections() {
		name := sec.Name()
		switch {
		case len(name) > len("bucket=") && name[:len("bucket=")] == "bucket=":
			var b BucketConfig
			if err := sec.MapTo(&b); err != nil {
				return nil, x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "decode [%s]", name)
			}
			b.Name = name[len("bucket="):]
			cfg.Buckets[b.Name] = b
		case len(name) > len("backend=") && name[:len("backend=")] == "backend=":
			var m MemberConfig
			if err := sec.MapTo(&m); err != nil {
				return nil, x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "decode [%s]", name)
			}
			m.Name = name[len("backend="):]
			cfg.Backends[m.Name] = m
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save serializes cfg back to path using an atomic replace (write to temp,
// rename), matching §5's "configuration file writes are atomic-replace".
func (cfg *Config) Save(path string) error {
	f := ini.Empty()

	dsec, err := f.NewSection("director")
	if err != nil {
		return x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "new [director] section")
	}
	if err := dsec.ReflectFrom(&cfg.Director); err != nil {
		return x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "encode [director]")
	}

	for name, b := range cfg.Buckets {
		sec, err := f.NewSection("bucket=" + name)
		if err != nil {
			return x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "new [bucket=%s]", name)
		}
		if err := sec.ReflectFrom(&b); err != nil {
			return x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "encode [bucket=%s]", name)
		}
	}

	for name, m := range cfg.Backends {
		sec, err := f.NewSection("backend=" + name)
		if err != nil {
			return x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "new [backend=%s]", name)
		}
		if err := sec.ReflectFrom(&m); err != nil {
			return x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "encode [backend=%s]", name)
		}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cluster-*.ini.tmp")
	if err != nil {
		return x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "close temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return x0derr.Wrap(x0derr.ConfigurationError, configErrWhere, err, "atomic rename to %s", path)
	}
	return nil
}
