package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"gitlab.com/meutraa/foxfactbot/pkg/env"
)

func main() {
	// Create a context the OS cancels on interrupts/signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	cancel()
	if nil != err {
		log.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := env.Load(); nil != err {
		return err
	}

	s := Server{}
	if err := s.ReadEnvironmentVariables(); nil != err {
		return err
	}
	defer func() {
		s.Close()
	}()

	if err := s.PrepareDatabase(ctx); nil != err {
		return err
	}

	if err := s.PrepareMastodon(ctx); nil != err {
		return err
	}

	s.PrepareCompletion()
	if err := s.PrepareLoop(ctx); nil != err {
		return err
	}
	if err := s.PrepareAPI(); nil != err {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.loop.Run(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case err = <-s.apiErr:
	}
	if errors.Is(err, context.Canceled) {
		log.Println("shutting down")
		return nil
	}
	return err
}
