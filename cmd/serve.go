//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package cmd

import (
	"context"
	"errors"
	"fmt"
	"github.com/municipal-ops/dispatch-board/api"
	"github.com/municipal-ops/dispatch-board/board"
	"github.com/municipal-ops/dispatch-board/conf"
	"github.com/municipal-ops/dispatch-board/lib/export"
	"github.com/municipal-ops/dispatch-board/lib/format"
	"github.com/municipal-ops/dispatch-board/lib/log"
	"github.com/municipal-ops/dispatch-board/lib/rand"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	envfileFlagName    = "envfile"
	envFileDefaultName = ".env"

	printConfigFlagName = "print-config"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Launch the dispatch board server",
	Long: "Launch the dispatch board server\n\n" +
		"Configuration starts from built-in defaults, which can be overridden by " +
		"a .env file and then by environment variables.",
	Run: runServer,
}

func runServer(cmd *cobra.Command, args []string) {
	cfg := mustApplyEnvConfig(conf.DefaultDispatch(), envFilename)
	os.Exit(runServerInternal(context.Background(), cfg, printConfig, make(chan string, 1)))
}

// runServerInternal starts the dispatch server and blocks until it is terminated.
//
// The supplied channel will be provided with the address of the server at the time when
// the server is started and ready to accept connections.
func runServerInternal(
	ctx context.Context, unvalidatedCfg *conf.DispatchConfig,
	printConfig bool, listeningAddr chan<- string,
) (exitCode int) {
	must(unvalidatedCfg.Validate())
	cfg := unvalidatedCfg

	configureLogger(cfg)

	if printConfig {
		stderrPrintf("Here's the final redacted DispatchConfig:\n\n%v\n\n", cfg.PrintRedacted())
	}

	b, err := board.New(cfg.Resources(), board.WithArea(cfg.Intake.Area))
	must(err)
	if cfg.Intake.SeedDemo {
		must(board.SeedDemo(b))
	}

	sink, err := newReportSink(ctx, cfg.Reports)
	must(err)
	if closer, ok := sink.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	notifyCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	group, groupCtx := errgroup.WithContext(notifyCtx)

	eventSource := api.NewEventSourcerer()
	mux := api.AddToMux(http.NewServeMux(), eventSource, cfg, b, sink)

	s := &http.Server{
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		// This needs to be long to support long-lived EventSource calls.
		// After this duration, a client will be disconnected and forced
		// to reconnect.
		WriteTimeout:   30 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
	s.RegisterOnShutdown(func() {
		eventSource.Server.Close()
	})

	addr := fmt.Sprintf("%v:%v", cfg.Core.Host, cfg.Core.Port)
	listener, err := net.Listen("tcp", addr)
	must(err)
	addr = fmt.Sprintf("%v:%v", cfg.Core.Host, listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err := s.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Serve", "err", err)
		}
	}()
	group.Go(func() error {
		return eventSource.Run(groupCtx, b)
	})
	if cfg.Simulator.Enabled {
		sim := board.NewSimulator(b,
			board.SimulatorConfig{PBegin: cfg.Simulator.PBegin, PResolve: cfg.Simulator.PResolve},
			simulatorRand(cfg.Simulator.Seed),
		)
		group.Go(func() error {
			return sim.Run(groupCtx, board.NewTimeTicker(cfg.Simulator.Interval))
		})
	}

	slog.Info("Dispatch server is ready for connections",
		"addr", addr,
		"maxRequestSize", format.ByteSize(cfg.Core.MaxRequestBytes),
	)
	slog.Info(fmt.Sprintf("The API is at http://%v/dispatch/api", addr))

	listeningAddr <- addr
	close(listeningAddr)
	// Hang here until a signal arrives or a background task fails
	<-groupCtx.Done()
	stop()
	slog.Error("Shutting down gracefully, press Ctrl+C again to force")

	// Tell the server to shut down, giving it this much time to do so gracefully.
	// Don't parent this ctx on the notifyCtx, because it's already done.
	timeoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err = s.Shutdown(timeoutCtx)
	slog.Error("Server shut down", "err", err)
	if err = group.Wait(); err != nil {
		slog.Error("Background task failed", "err", err)
	}
	return 69
}

// newReportSink returns a nil Sink when report export is turned off.
func newReportSink(ctx context.Context, cfg conf.Reports) (export.Sink, error) {
	switch cfg.Type {
	case conf.ReportsStoreLocal:
		sink, err := export.NewLocalSink(cfg.Local.Dir)
		if err != nil {
			return nil, fmt.Errorf("[NewLocalSink]: %w", err)
		}
		return sink, nil
	case conf.ReportsStoreS3:
		sink, err := export.NewS3Sink(ctx, export.S3Settings{
			AccessKeyID:     cfg.S3.AWSAccessKeyID,
			SecretAccessKey: cfg.S3.AWSSecretAccessKey,
			Region:          cfg.S3.AWSRegion,
			Bucket:          cfg.S3.Bucket,
			KeyPrefix:       cfg.S3.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("[NewS3Sink]: %w", err)
		}
		return sink, nil
	default:
		return nil, nil
	}
}

func simulatorRand(seed string) board.Float64er {
	if seed == "" {
		return rand.NewUnseeded()
	}
	slog.Info("Simulator is seeded, runs will be reproducible", "seed", seed)
	return rand.NewSeeded(rand.ParseSeed(seed))
}

func configureLogger(cfg *conf.DispatchConfig) {
	var logLevel slog.Level
	must(logLevel.UnmarshalText([]byte(cfg.Core.LogLevel)))
	logger := slog.New(
		log.NewHandler(
			&slog.HandlerOptions{Level: logLevel},
		),
	)
	slog.SetDefault(logger)
}

var (
	envFilename string
	printConfig bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&envFilename, envfileFlagName, envFileDefaultName,
		"An env file from which to load dispatch server configuration. "+
			"Defaults to '.env' in the current directory")
	serveCmd.Flags().BoolVar(&printConfig, printConfigFlagName, true,
		"Whether to print the redacted DispatchConfig on server startup")
}

// must logs an error and panics. This should only be done for
// startup errors, not after the server is up and running.
func must(err error) {
	if err != nil {
		panic("got a startup error: " + err.Error())
	}
}

func stderrPrintf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}
