package service

import (
	"context"
	"errors"
	"sync"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
)

// TaskError accumulates multiple errors produced during bulk work.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// PortfolioWarmer recomputes and caches portfolios for many users using a
// worker pool, so the first admin page load after a merge or migration does
// not pay the full aggregation cost per user.
type PortfolioWarmer struct {
	service *Reconciler
	workers int
}

// NewPortfolioWarmer creates a warmer with the provided concurrency.
func NewPortfolioWarmer(service *Reconciler, workers int) *PortfolioWarmer {
	if workers <= 0 {
		workers = 4
	}
	return &PortfolioWarmer{
		service: service,
		workers: workers,
	}
}

// WarmAll refreshes the cached portfolio of every known user. Returns the
// number of users processed alongside any aggregated per-user errors.
func (w *PortfolioWarmer) WarmAll(ctx context.Context) (int, error) {
	users, err := w.service.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), w.WarmUsers(ctx, users)
}

// WarmUsers refreshes the cached portfolios of the provided users.
func (w *PortfolioWarmer) WarmUsers(ctx context.Context, users []domain.User) error {
	return w.run(ctx, len(users), func(idx int) error {
		u := users[idx]
		_, err := w.service.refreshPortfolio(ctx, u.ID, u.Email)
		return err
	})
}

func (w *PortfolioWarmer) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	var taskErr TaskError
	for err := range errCh {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
