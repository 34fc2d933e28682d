package pipelinesvc

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"

	"github.com/kart-io/verdict-x/pkg/infra/app"
	"github.com/kart-io/verdict-x/pkg/utils/validator"
)

const appDescription = "Query pipeline service: classifies incoming queries, " +
	"retrieves supporting knowledge, generates an answer, scores it against " +
	"quality criteria and issues an accept/reject/manual_review decision."

// NewApp creates the pipeline application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(Name),
		app.WithShortDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
	)
}

// Run initializes and runs the pipeline service with the given options.
func Run(opts *Options) error {
	opts.Log.AddInitialField("service.name", Name)
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting pipeline service...")

	if err := validator.RegisterRules(); err != nil {
		return fmt.Errorf("failed to register validation rules: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := NewServer(ctx, opts)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
