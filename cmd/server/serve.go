package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/device-auth-server/internal/config"
	"github.com/jrsteele09/device-auth-server/internal/logging"
	"github.com/jrsteele09/device-auth-server/server"
	"github.com/jrsteele09/device-auth-server/telemetry"
	"github.com/jrsteele09/device-auth-server/token"
	"github.com/rs/zerolog/log"
)

func serve() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logging.Setup(c.GetLogLevel(), c.GetEnv())
	displayAppname(c.GetAppName())

	ctx := context.Background()
	stores, err := openStores(ctx, c)
	if err != nil {
		return err
	}
	defer stores.Close()

	sinks := openSinks(c)
	defer sinks.Close()

	handler, err := newHandler(c, stores, sinks.sinks)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(srv) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func newHandler(c config.Config, st *stores, sinks []telemetry.Sink) (*server.Server, error) {
	verifier := token.NewVerifier()
	repos := token.Repos{Credentials: st.credentials, Tokens: st.tokens}

	issuer, err := token.NewIssuer(repos, c, verifier)
	if err != nil {
		return nil, err
	}
	validator, err := token.NewDeviceTokenValidator(repos, verifier)
	if err != nil {
		return nil, err
	}
	recorder, err := telemetry.NewRecorder(st.devices, st.logs, telemetry.WithSinks(sinks...))
	if err != nil {
		return nil, err
	}

	return server.New(c, server.Services{
		Issuer:    issuer,
		Validator: validator,
		Recorder:  recorder,
		Devices:   st.devices,
	})
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
