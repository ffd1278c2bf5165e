// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package main

import (
	"fmt"
	"net"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/ice9proj/ice9/internal/frame"
	"github.com/ice9proj/ice9/internal/netaddr"
)

// Conventional process exit codes, matching the sysexits.h categories the
// spec calls for: usage error, data/protocol error, I/O error, internal
// error. The child's own exit code (via the X frame) is used verbatim on
// normal completion and can collide with these by coincidence - that's
// inherent to "exit code as sole return channel" and not worth guarding.
const (
	exitUsage    = 64
	exitDataErr  = 65
	exitIOErr    = 74
	exitSoftware = 70
)

func main() {
	app := cli.NewApp()
	app.Name = "ice9"
	app.Usage = "run a command on an ice9 server and relay its stdio"
	// Top-level flag parsing stops at the first positional argument, so
	// -p and -e are recognized only before <host>; anything after <host>
	// is taken as a positional argument.
	app.UsageText = "ice9 [-p <port>] <host> <executable> [<arg> ...]\n" +
		"   ice9 [-p <port>] -e <verbatim-command-line> <host> <executable>"
	app.ArgsUsage = "<host> <executable> [<arg> ...]"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "p, port",
			Value: netaddr.DefaultPort,
			Usage: "server port",
		},
		cli.StringFlag{
			Name:  "e",
			Usage: "send <executable>'s arguments as this verbatim command line instead of encoding the trailing arguments",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		color.Red("ice9: %v", err)
		os.Exit(exitUsage)
	}
}

func run(c *cli.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return cli.NewExitError("usage: ice9 [-p <port>] <host> <executable> [<arg> ...]", exitUsage)
	}

	host := args[0]
	executable := args[1]
	trailing := args[2:]
	verbatim := c.String("e")

	if verbatim != "" && len(trailing) > 0 {
		return cli.NewExitError("-e is mutually exclusive with trailing arguments", exitUsage)
	}

	var commandLine string
	if verbatim != "" {
		commandLine = verbatim
	} else {
		commandLine = EncodeCommandLine(append([]string{executable}, trailing...))
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", c.Int("port")))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("dial %s: %v", addr, err), exitIOErr)
	}
	defer conn.Close()

	if err := sendFrame(conn, frame.CmdSetApplicationPath, []byte(executable)); err != nil {
		return cli.NewExitError(err.Error(), exitIOErr)
	}
	if err := sendFrame(conn, frame.CmdSetCommandLine, []byte(commandLine)); err != nil {
		return cli.NewExitError(err.Error(), exitIOErr)
	}
	if err := sendFrame(conn, frame.CmdExecute, nil); err != nil {
		return cli.NewExitError(err.Error(), exitIOErr)
	}

	stdinErrCh := make(chan error, 1)
	go relayStdin(conn, os.Stdin, stdinErrCh)
	go func() {
		if err := <-stdinErrCh; err != nil {
			color.Red("ice9: stdin relay: %v", err)
		}
	}()

	reader := newFrameReader(conn)
	for {
		f, err := reader.next()
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("connection closed before an exit frame arrived: %v", err), exitIOErr)
		}

		switch f.Command {
		case frame.CmdStdout:
			if len(f.Payload) == 0 {
				continue
			}
			if _, err := os.Stdout.Write(f.Payload); err != nil {
				return cli.NewExitError(err.Error(), exitIOErr)
			}
		case frame.CmdStderr:
			if len(f.Payload) == 0 {
				continue
			}
			if _, err := os.Stderr.Write(f.Payload); err != nil {
				return cli.NewExitError(err.Error(), exitIOErr)
			}
		case frame.CmdExit:
			code, err := exitCode(f)
			if err != nil {
				return cli.NewExitError(err.Error(), exitDataErr)
			}
			os.Exit(code)
		default:
			return cli.NewExitError(fmt.Sprintf("unexpected frame command %q", f.Command), exitDataErr)
		}
	}
}
