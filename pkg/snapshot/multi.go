package snapshot

import (
	"context"
	"errors"
)

// MultiSink writes every snapshot to all of its sinks. A failing sink does
// not stop the others; the errors are joined.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, hostname, suffix string, content []byte) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, hostname, suffix, content); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
