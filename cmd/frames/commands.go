package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/iocgo/frames"
	"github.com/iocgo/frames/cobra"
	"github.com/iocgo/frames/env"
	"github.com/iocgo/frames/internal/logger"
	"github.com/iocgo/frames/stack"
)

type rootCommand struct {
	Backend string `cobra:"backend,per" short:"b" usage:"frame acquisition backend: auto, native or fallback"`
	Debug   bool   `cobra:"debug,per" usage:"enable debug logging"`
	NoColor bool   `cobra:"no-color,per" usage:"disable colored log output"`

	env *env.Environment
}

// Pre installs the logger and the backend before any subcommand runs. The
// flag wins over the FRAMES_BACKEND setting.
func (r *rootCommand) Pre(cmd *cobra.Command, args []string) error {
	logger.Init(r.Debug || r.env.Debug(), r.NoColor)

	name := r.Backend
	if name == "" {
		name = r.env.Backend()
	}

	mode, err := stack.ParseMode(name)
	if err != nil {
		return err
	}

	b, err := stack.New(mode)
	if err != nil {
		return err
	}

	stack.Configure(b)
	log.Debug("backend configured", "mode", b.Mode(), "config", r.env.Path())
	return nil
}

type detectCommand struct{}

func (detectCommand) Run(cmd *cobra.Command, args []string) error {
	mode, err := stack.Detect()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "detected: %s\nactive:   %s\n", mode, stack.Active().Mode())
	return nil
}

type traceCommand struct {
	Limit int `cobra:"limit" short:"n" usage:"maximum number of frames to print, 0 for all"`
}

func (t *traceCommand) Run(cmd *cobra.Command, args []string) error {
	view, err := frames.CurrentFrame()
	if err != nil {
		return err
	}

	n := 0
	for v := view; v.Present(); v = v.Caller() {
		if t.Limit > 0 && n == t.Limit {
			break
		}
		printFrame(cmd, v)
		n++
	}
	return nil
}

type locateCommand struct {
	IncludeRoot bool `cobra:"include-root" usage:"also test the frame running this command"`
}

func (l *locateCommand) Run(cmd *cobra.Command, args []string) error {
	var opts []frames.Option
	if l.IncludeRoot {
		opts = append(opts, frames.IncludeRoot())
	}

	found, err := frames.Locate(func(f frames.StackFrame) bool {
		return strings.Contains(f.Function(), args[0])
	}, opts...)
	if err != nil {
		return err
	}

	view, err := frames.As[frames.View](found)
	if err != nil {
		return err
	}
	printFrame(cmd, view)
	return nil
}

type serveCommand struct {
	Addr string `cobra:"addr" short:"a" usage:"listen address, defaults to serve.addr"`

	env    *env.Environment
	engine *gin.Engine
}

func (s *serveCommand) Run(cmd *cobra.Command, args []string) error {
	addr := s.Addr
	if addr == "" {
		addr = s.env.Addr()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: s.engine}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			log.Error("shutdown failed", "err", err)
		}
	}()

	log.Info("serving frames", "addr", addr, "mode", stack.Active().Mode())
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func printFrame(cmd *cobra.Command, v frames.View) {
	marker := ""
	if v.Panic() != nil {
		marker = " [panic]"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "#%-3d %s%s\n     %s:%d\n", v.Depth(), v.Function(), marker, v.File(), v.Line())
}
