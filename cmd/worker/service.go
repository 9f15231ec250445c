package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shiplist-backend/pkg/logger"
)

const heartbeatInterval = 30 * time.Second

type pinger interface {
	Ping(context.Context) error
}

type consumer interface {
	Run(context.Context) error
}

type ServiceParams struct {
	Logger     *logger.Logger
	DB         pinger
	Redis      pinger
	PubSub     pinger
	Activity   consumer
	InstanceID string
}

type dependency struct {
	name string
	conn pinger
}

// Service runs the row activity projection until its context ends.
type Service struct {
	logg       *logger.Logger
	deps       []dependency
	activity   consumer
	instanceID string
	heartbeat  time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	var err error
	if params.Logger == nil {
		err = multierr.Append(err, errors.New("logger is required"))
	}
	deps := []dependency{
		{name: "database", conn: params.DB},
		{name: "redis", conn: params.Redis},
		{name: "pubsub", conn: params.PubSub},
	}
	for _, dep := range deps {
		if dep.conn == nil {
			err = multierr.Append(err, fmt.Errorf("%s client is required", dep.name))
		}
	}
	if params.Activity == nil {
		err = multierr.Append(err, errors.New("activity consumer is required"))
	}
	if err != nil {
		return nil, err
	}
	return &Service{
		logg:       params.Logger,
		deps:       deps,
		activity:   params.Activity,
		instanceID: params.InstanceID,
		heartbeat:  heartbeatInterval,
	}, nil
}

// ready pings dependencies in order and stops at the first failure.
func (s *Service) ready(ctx context.Context) error {
	for _, dep := range s.deps {
		if err := dep.conn.Ping(ctx); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "dependency", dep.name), "dependency ping failed", err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

// Run returns the consumer's error. Cancelling ctx yields context.Canceled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		err := s.activity.Run(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "activity consumer stopped unexpectedly", err)
		}
		return err
	})
	g.Go(func() error {
		s.beat(gctx)
		return nil
	})

	err := g.Wait()
	if ctx.Err() != nil {
		s.logg.Info(ctx, "worker context canceled")
		return ctx.Err()
	}
	return err
}

func (s *Service) beat(ctx context.Context) {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	beatCtx := s.logg.WithField(ctx, "instance_id", s.instanceID)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logg.Debug(beatCtx, "worker heartbeat")
		}
	}
}
