package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bizdir/admin-server/internal/audit"
	"github.com/bizdir/admin-server/internal/model"
)

// entry fills the action fields of a request-scoped audit entry.
func entry(meta audit.Entry, action model.AuditAction, resource model.AuditResource, resourceID int64, details string) audit.Entry {
	meta.Action = action
	meta.Resource = resource
	meta.ResourceID = audit.Int64(resourceID)
	meta.Details = details
	return meta
}

type task func(ctx context.Context) error

// fanOut runs tasks concurrently. The first error cancels the rest.
func fanOut(ctx context.Context, tasks ...task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error { return t(ctx) })
	}
	return g.Wait()
}

// count stores the result of fn in dst.
func count(dst *int, fn func(ctx context.Context) (int, error)) task {
	return func(ctx context.Context) error {
		n, err := fn(ctx)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}
