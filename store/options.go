package store

import (
	"context"

	"github.com/delaneyj/todoparty/logging"
	"github.com/sirupsen/logrus"
)

type options struct {
	name string
	log  *logrus.Entry
	ctx  context.Context
}

type Option func(*options)

// WithName labels the store in log lines.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger replaces the default "store" component logger.
func WithLogger(log *logrus.Entry) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithContext sets the parent context handed to effects. Tasks receive it
// as is; streams receive a child cancelled with their handle.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

func buildOptions(opts []Option) options {
	o := options{
		name: "store",
		ctx:  context.Background(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logging.NewLogger("store")
	}
	o.log = o.log.WithField("store", o.name)
	return o
}
