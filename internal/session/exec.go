// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package session

import (
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ice9proj/ice9/internal/asyncpipe"
	"github.com/ice9proj/ice9/internal/pathsearch"
)

// Execute implements the 'E' command: create the three pipe pairs,
// resolve the program to run, spawn the child, and transition to Running.
// On any failure it releases whatever it already created; the caller is
// responsible for destroying the session.
func (s *Session) Execute() error {
	stdinRead, stdinWrite, err := os.Pipe()
	if err != nil {
		return errors.Wrap(err, "create stdin pipe")
	}
	stdoutRead, stdoutWrite, err := os.Pipe()
	if err != nil {
		stdinRead.Close()
		stdinWrite.Close()
		return errors.Wrap(err, "create stdout pipe")
	}
	stderrRead, stderrWrite, err := os.Pipe()
	if err != nil {
		stdinRead.Close()
		stdinWrite.Close()
		stdoutRead.Close()
		stdoutWrite.Close()
		return errors.Wrap(err, "create stderr pipe")
	}

	cleanup := func() {
		stdinRead.Close()
		stdinWrite.Close()
		stdoutRead.Close()
		stdoutWrite.Close()
		stderrRead.Close()
		stderrWrite.Close()
	}

	name, args, err := s.resolveProgram()
	if err != nil {
		cleanup()
		s.reportSpawn(false)
		return err
	}

	cmd := exec.Command(name, args...)
	cmd.Stdin = stdinRead
	cmd.Stdout = stdoutWrite
	cmd.Stderr = stderrWrite
	if s.WorkingDirectory != nil {
		cmd.Dir = *s.WorkingDirectory
	}

	if err := cmd.Start(); err != nil {
		cleanup()
		s.reportSpawn(false)
		return errors.Wrap(err, "start child process")
	}
	s.reportSpawn(true)

	// The child now owns its side of each pipe; the server only ever
	// touches the ends it retained.
	stdinRead.Close()
	stdoutWrite.Close()
	stderrWrite.Close()

	s.StdinPipe = asyncpipe.NewWritePipe(stdinWrite)
	s.StdoutPipe = asyncpipe.NewReadPipe(stdoutRead, MaxPipeRead)
	s.StderrPipe = asyncpipe.NewReadPipe(stderrRead, MaxPipeRead)

	s.Child = cmd
	s.ExitCh = make(chan ExitResult, 1)
	go s.superviseChild(cmd)

	s.State = StateRunning
	s.Log.Info("child started", zap.String("path", name), zap.Strings("args", args))
	return nil
}

// reportSpawn records a child-spawn outcome against the session's
// counters, if any are attached.
func (s *Session) reportSpawn(ok bool) {
	if s.Counters == nil {
		return
	}
	if ok {
		s.Counters.ChildSpawns.Add(1)
	} else {
		s.Counters.ChildSpawnFailed.Add(1)
	}
}

// superviseChild waits for the child to exit on its own goroutine and
// delivers the outcome over a buffered channel, mirroring the
// goroutine-per-blocking-call pattern used for every other outstanding
// operation in this package.
func (s *Session) superviseChild(cmd *exec.Cmd) {
	err := cmd.Wait()
	if err == nil {
		s.ExitCh <- ExitResult{Code: 0}
		return
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		s.ExitCh <- ExitResult{Code: exitErr.ExitCode()}
		return
	}
	s.ExitCh <- ExitResult{Code: -1, Err: err}
}

// resolveProgram determines the executable and argv from the session's
// application_path and command_line fields.
func (s *Session) resolveProgram() (string, []string, error) {
	var appPath string
	if s.ApplicationPath != nil {
		appPath = *s.ApplicationPath
	}
	var cmdLine string
	if s.CommandLine != nil {
		cmdLine = *s.CommandLine
	}

	if appPath == "" {
		if cmdLine == "" {
			return "", nil, errors.New("neither an application path nor a command line was set")
		}
		return "/bin/sh", []string{"-c", cmdLine}, nil
	}

	resolved, err := resolveApplicationPath(appPath)
	if err != nil {
		return "", nil, err
	}

	args := SplitCommandLine(cmdLine)
	if len(args) == 0 {
		return resolved, nil, nil
	}
	return resolved, args[1:], nil
}

// resolveApplicationPath follows the source's algorithm: a name containing
// a path separator is used as given, a bare name that already exists as a
// filesystem entry is used as given, otherwise the external path-search
// collaborator is consulted, falling back to exec.LookPath's PATH search
// and suffix rules for names the literal algorithm misses.
func resolveApplicationPath(appPath string) (string, error) {
	if strings.ContainsRune(appPath, '/') {
		return appPath, nil
	}
	if info, err := os.Stat(appPath); err == nil && !info.IsDir() {
		return appPath, nil
	}
	if resolved, ok := pathsearch.Find(os.Getenv("PATH"), appPath); ok {
		return resolved, nil
	}
	if resolved, err := exec.LookPath(appPath); err == nil {
		return resolved, nil
	}
	return "", errors.Errorf("executable %q not found", appPath)
}
