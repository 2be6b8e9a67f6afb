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

// Command x0d is the CLI surface (§6): it loads a Flow configuration file,
// compiles it through the full pipeline, optionally loads and serves a
// cluster configuration, and runs the worker pool behind an *http.Server.
// Daemonization, signal-based reload, TLS termination and the concrete
// per-module builtins (staticfile, compress, auth, ...) are out of scope
// (§1 Non-goals) and are not implemented here beyond flags that log a
// clear "not implemented" warning rather than silently doing nothing.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nabbar/x0d/builtin"
	x0dcluster "github.com/nabbar/x0d/cluster"
	"github.com/nabbar/x0d/compiler"
	"github.com/nabbar/x0d/daemon"
	"github.com/nabbar/x0d/logger"
)

// exitCode classifies a failure per §6's "Exit codes: 0 success, 1
// configuration failure, 2 runtime startup failure".
type exitCode int

const (
	exitSuccess exitCode = 0
	exitConfig  exitCode = 1
	exitRuntime exitCode = 2
)

// configErr/startupErr tag an error with the exit code it should produce,
// since cobra's RunE only gives main a plain error to classify.
type configErr struct{ err error }

func (e *configErr) Error() string { return e.err.Error() }
func (e *configErr) Unwrap() error { return e.err }

type startupErr struct{ err error }

func (e *startupErr) Error() string { return e.err.Error() }
func (e *startupErr) Unwrap() error { return e.err }

type options struct {
	configPath        string
	clusterConfigPath string
	listen            string
	workers           int
	optLevel          int
	queueLen          int
	maxRedirect       int
	allowExperimental bool
	dumpAST           bool
	dumpIR            bool
	dumpTC            bool
	verbose           int
	user              string
	group             string
	daemonize         bool
}

func main() {
	opt := &options{}

	root := &cobra.Command{
		Use:   "x0d",
		Short: "x0d serves HTTP requests through a compiled Flow handler pipeline",
		Long: "x0d compiles a Flow configuration file (lexer -> parser -> IR -> " +
			"passes -> target code) and runs it as an HTTP server, proxying to " +
			"a cluster of upstream backends where the Flow program calls " +
			"proxy.cluster.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opt)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&opt.configPath, "config", "c", "", "path to the Flow configuration file (required)")
	flags.StringVar(&opt.clusterConfigPath, "cluster-config", "", "path to the persisted cluster INI document (§6)")
	flags.StringVarP(&opt.listen, "listen", "l", ":8080", "address to listen on")
	flags.IntVarP(&opt.workers, "workers", "w", 4, "number of worker loops (§5)")
	flags.IntVarP(&opt.optLevel, "optimization", "O", 1, "pass-manager optimization level (0-3, §4.4)")
	flags.IntVar(&opt.queueLen, "queue-len", 256, "per-worker executor queue length")
	flags.IntVar(&opt.maxRedirect, "max-internal-redirect", 10, "max_internal_redirect_count (§4.6)")
	flags.BoolVar(&opt.allowExperimental, "allow-experimental", false, "opt experimental builtins into linking (§4.5)")
	flags.BoolVar(&opt.dumpAST, "dump-ast", false, "print the compiled AST and exit")
	flags.BoolVar(&opt.dumpIR, "dump-ir", false, "print the compiled IR and exit")
	flags.BoolVar(&opt.dumpTC, "dump-tc", false, "print the linked target code and exit")
	flags.CountVarP(&opt.verbose, "verbose", "v", "increase log verbosity (repeatable)")
	flags.StringVar(&opt.user, "user", "", "drop privileges to this user after binding (not implemented, §1 Non-goals)")
	flags.StringVar(&opt.group, "group", "", "drop privileges to this group after binding (not implemented, §1 Non-goals)")
	flags.BoolVar(&opt.daemonize, "daemonize", false, "fork into the background (not implemented, §1 Non-goals)")

	_ = root.MarkFlagRequired("config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root.SetContext(ctx)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "x0d:", err)
		os.Exit(int(classify(err)))
	}
}

func classify(err error) exitCode {
	var ce *configErr
	if errors.As(err, &ce) {
		return exitConfig
	}
	var se *startupErr
	if errors.As(err, &se) {
		return exitRuntime
	}
	return exitConfig
}

func run(ctx context.Context, opt *options) error {
	lvl := logger.InfoLevel
	switch {
	case opt.verbose >= 2:
		lvl = logger.DebugLevel
	case opt.verbose == 1:
		lvl = logger.InfoLevel
	}
	log := logger.New(lvl, os.Stderr)

	if opt.user != "" || opt.group != "" {
		log.Warn("--user/--group were given but privilege drop is not implemented (§1 Non-goals); running as the invoking user")
	}
	if opt.daemonize {
		log.Warn("--daemonize was given but background forking is not implemented (§1 Non-goals); running in the foreground")
	}

	host := builtin.NewRegistry(opt.allowExperimental)

	manager := x0dcluster.NewManager()
	if opt.clusterConfigPath != "" {
		if err := loadCluster(opt.clusterConfigPath, manager, log); err != nil {
			return &configErr{err}
		}
	}

	if err := builtin.RegisterStdlib(host, manager); err != nil {
		return &configErr{err}
	}

	if opt.configPath == "" {
		return &configErr{errors.New("--config is required")}
	}

	result, err := compiler.CompileFile(opt.configPath, host, compiler.Options{
		OptLevel: opt.optLevel,
		DumpAST:  opt.dumpAST,
		DumpIR:   opt.dumpIR,
		DumpTC:   opt.dumpTC,
	})
	if err != nil {
		return &configErr{err}
	}

	if opt.dumpAST {
		fmt.Print(result.ASTDump)
	}
	if opt.dumpIR {
		fmt.Print(result.IRDump)
	}
	if opt.dumpTC {
		fmt.Print(result.TCDump)
	}
	if opt.dumpAST || opt.dumpIR || opt.dumpTC {
		return nil
	}

	for _, c := range manager.All() {
		c.StartMonitors()
		defer c.Stop()
	}

	pool := daemon.NewPool(opt.workers, result.Program, opt.maxRedirect, opt.queueLen, log)

	setupCtx, cancelSetup := context.WithTimeout(ctx, 30*time.Second)
	defer cancelSetup()
	if err := pool.RunSetup(setupCtx); err != nil {
		return &startupErr{fmt.Errorf("setup handler: %w", err)}
	}

	pool.Start(ctx)

	srv := &http.Server{Addr: opt.listen, Handler: pool}

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(logger.Fields{"addr": opt.listen}).Info("listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return &startupErr{err}
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithFields(logger.Fields{"error": err.Error()}).Error("http server shutdown")
		}
	}

	if err := pool.Shutdown(); err != nil {
		log.WithFields(logger.Fields{"error": err.Error()}).Error("worker pool shutdown")
	}
	return nil
}

func loadCluster(path string, manager *x0dcluster.Manager, log logger.Logger) error {
	cfg, err := x0dcluster.LoadConfig(path)
	if err != nil {
		return err
	}
	ctrl, err := x0dcluster.NewController(cfg.Director.Name, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	manager.Add(ctrl)
	return nil
}
