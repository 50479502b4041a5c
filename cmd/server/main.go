// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moov-io/base/admin"
	moovhttp "github.com/moov-io/base/http"
	"github.com/moov-io/base/log"

	"github.com/moov-io/accountprocess"
	"github.com/moov-io/accountprocess/pkg/config"
	"github.com/moov-io/accountprocess/pkg/mscall"
	"github.com/moov-io/accountprocess/pkg/process"

	"github.com/gorilla/mux"
)

var (
	httpAddr  = flag.String("http.addr", "", "HTTP listen address")
	adminAddr = flag.String("admin.addr", "", "Admin HTTP listen address")

	flagLogFormat = flag.String("log.format", "", "Format for log lines (Options: json, plain")
)

func main() {
	flag.Parse()

	logger := setupLogger(*flagLogFormat)
	logger.Set("phase", log.String("startup")).Logf("Starting moov-io/accountprocess server version %s", accountprocess.Version)

	conf := config.New()
	if err := conf.Load(); err != nil {
		logger.LogErrorf("failed to load application config: %v", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		conf.Servers.HTTPAddress = *httpAddr
	}
	if *adminAddr != "" {
		conf.Servers.AdminAddress = *adminAddr
	}

	// Channel for errors
	errs := make(chan error)

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	// Start Admin server (with Prometheus metrics)
	adminServer := admin.NewServer(conf.Servers.AdminAddress)
	adminServer.AddVersionHandler(accountprocess.Version) // Setup 'GET /version'
	go func() {
		logger.Logf("admin listening on %s", adminServer.BindAddr())
		if err := adminServer.Listen(); err != nil {
			logger.LogErrorf("problem starting admin http: %v", err)
			errs <- err
		}
	}()
	defer adminServer.Shutdown()

	// Create our commerce client
	commerceClient, sender, err := setupSender(logger, conf)
	if err != nil {
		logger.LogErrorf("failed to create sender: %v", err)
		os.Exit(1)
	}
	adminServer.AddLivenessCheck("commerce", commerceClient.Ping)

	// Setup business HTTP routes
	router := mux.NewRouter()
	moovhttp.AddCORSHandler(router)
	addPingRoute(router)
	addProcessRoutes(logger, router, sender)

	serve := &http.Server{
		Addr:    conf.Servers.HTTPAddress,
		Handler: router,
		TLSConfig: &tls.Config{
			InsecureSkipVerify:       false,
			PreferServerCipherSuites: true,
			MinVersion:               tls.VersionTLS12,
		},
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	shutdownServer := func() {
		if err := serve.Shutdown(context.TODO()); err != nil {
			logger.Set("phase", log.String("shutdown")).LogErrorf("failed to shutdown server: %v", err)
		}
	}

	// Start business logic HTTP server
	go func() {
		if certFile, keyFile := os.Getenv("HTTPS_CERT_FILE"), os.Getenv("HTTPS_KEY_FILE"); certFile != "" && keyFile != "" {
			logger.Set("phase", log.String("startup")).Logf("binding to %s for secure HTTP server", conf.Servers.HTTPAddress)
			if err := serve.ListenAndServeTLS(certFile, keyFile); err != nil {
				logger.LogErrorf("failed to start TLS server: %v", err)
			}
		} else {
			logger.Set("phase", log.String("startup")).Logf("binding to %s for HTTP server", conf.Servers.HTTPAddress)
			if err := serve.ListenAndServe(); err != nil {
				logger.LogErrorf("failed to start server: %v", err)
			}
		}
	}()

	// Block/Wait for an error
	if err := <-errs; err != nil {
		shutdownServer()
		logger.LogErrorf("service error: %v", err)
	}
}

func addPingRoute(r *mux.Router) {
	r.Methods("GET").Path("/ping").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		moovhttp.SetAccessControlAllowHeaders(w, r.Header.Get("Origin"))
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("PONG"))
	})
}

func setupLogger(format string) log.Logger {
	var logger log.Logger
	if strings.ToLower(format) == "json" {
		logger = log.NewJSONLogger()
	} else {
		logger = log.NewDefaultLogger()
	}
	return logger.Set("app", log.String("accountprocess"))
}

func setupSender(logger log.Logger, conf *config.Config) (mscall.Client, *process.Sender, error) {
	if err := conf.Validate(); err != nil {
		return nil, nil, err
	}
	client := mscall.NewClient(logger, []string{"commerce"}, conf.Endpoints(), conf.Commerce.Timeout, conf.Commerce.Debug)
	sender, err := process.NewSender(logger, client, conf.ServiceName)
	if err != nil {
		return nil, nil, err
	}
	return client, sender, nil
}
