// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/ice9proj/ice9/internal/config"
	"github.com/ice9proj/ice9/internal/logging"
	"github.com/ice9proj/ice9/internal/mux"
	"github.com/ice9proj/ice9/internal/netaddr"
	"github.com/ice9proj/ice9/internal/stats"
)

func main() {
	app := cli.NewApp()
	app.Name = "ice9d"
	app.Usage = "host child processes for networked ice9 clients"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "listen, l",
			Value: "",
			Usage: "listen address, host:port (default all interfaces, port 5424)",
		},
		cli.IntFlag{
			Name:  "max-connections, m",
			Value: mux.MaxConnections,
			Usage: "maximum concurrent sessions",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "debug, info, warn, or error",
		},
		cli.StringFlag{
			Name:  "stats-interval",
			Value: "0s",
			Usage: "how often to log session counters, 0 to disable",
		},
		cli.StringFlag{
			Name:  "c, config",
			Usage: "optional JSON or YAML config file; flags override its values",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		color.Red("ice9d: %v", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	listen := c.String("listen")
	maxConnections := c.Int("max-connections")
	logLevel := c.String("log-level")

	if path := c.String("config"); path != "" {
		fileCfg, err := config.LoadServer(path)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		if !c.IsSet("listen") && fileCfg.Listen != nil {
			listen = *fileCfg.Listen
		}
		if !c.IsSet("max-connections") && fileCfg.MaxConnections != nil {
			maxConnections = *fileCfg.MaxConnections
		}
		if !c.IsSet("log-level") && fileCfg.LogLevel != nil {
			logLevel = *fileCfg.LogLevel
		}
	}

	log, err := logging.New(logLevel)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer log.Sync()

	host, port := "", netaddr.DefaultPort
	if listen != "" {
		var err error
		host, port, err = netaddr.ResolveHostPort(listen, netaddr.DefaultPort)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	log.Info("listening", zap.String("addr", ln.Addr().String()), zap.Int("max_connections", maxConnections))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("signal received, shutting down")
		cancel()
	}()

	var counters stats.Counters
	if interval, err := time.ParseDuration(c.String("stats-interval")); err == nil && interval > 0 {
		stop := make(chan struct{})
		go stats.RunPeriodicLogger(&counters, log, interval, stop)
		go func() {
			<-ctx.Done()
			close(stop)
		}()
	}

	srv := mux.NewServer(ln, log, maxConnections, &counters)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}
