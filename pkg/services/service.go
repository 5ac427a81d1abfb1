package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dskvich/simba-ai/pkg/logger"
	"github.com/hashicorp/go-multierror"
)

// Service is a long running component. Start blocks until ctx is done or the service fails.
type Service interface {
	Name() string
	Start(ctx context.Context) error
}

type Group []Service

// Start runs every service and waits for all of them. The first failure cancels the rest;
// all errors are returned together.
func (g Group) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs *multierror.Error
	)

	for _, svc := range g {
		wg.Add(1)
		go func(svc Service) {
			defer wg.Done()

			slog.Info("starting service", "service", svc.Name())
			err := svc.Start(ctx)
			if err == nil {
				slog.Info("service stopped", "service", svc.Name())
				return
			}

			slog.Error("service failed", "service", svc.Name(), logger.Err(err))
			mu.Lock()
			errs = multierror.Append(errs, err)
			mu.Unlock()
			cancel()
		}(svc)
	}

	wg.Wait()
	return errs.ErrorOrNil()
}
