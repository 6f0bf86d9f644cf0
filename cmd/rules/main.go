package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	rulescmd "github.com/JayLeung362573/373-sub000/internal/cmd/rules"
	"github.com/JayLeung362573/373-sub000/internal/platform/config"
)

// main plays a rules file on the terminal, or against answers piped on stdin.
func main() {
	cfg, err := rulescmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("rules: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streams := rulescmd.IO{
		In:          os.Stdin,
		Out:         os.Stdout,
		Interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
	if err := rulescmd.Run(ctx, cfg, streams); err != nil {
		stop()
		config.Exitf("rules: %v", err)
	}
}
