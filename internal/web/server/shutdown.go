package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ShutdownHook is a function called during graceful shutdown, after the HTTP
// server has stopped accepting requests
type ShutdownHook func(ctx context.Context) error

// RegisterHook registers a shutdown hook. Hooks run in registration order.
func (s *Server) RegisterHook(hook ShutdownHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Run serves until ctx is done, then shuts down gracefully within the configured
// timeout. Callers typically pass a context from signal.NotifyContext.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, shutting down gracefully")
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig(nil).ShutdownTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("initiating graceful shutdown", zap.Duration("timeout", timeout))

	var shutdownErr error
	if err := s.Shutdown(ctx); err != nil {
		shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		s.logger.Error("server shutdown error", zap.Error(err))
	}

	s.mu.Lock()
	hooks := make([]ShutdownHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for i, hook := range hooks {
		if err := hook(ctx); err != nil {
			// continue with other hooks
			s.logger.Warn("shutdown hook failed", zap.Int("hook", i), zap.Error(err))
		}
	}

	if shutdownErr == nil {
		s.logger.Info("server shutdown completed")
	}
	return shutdownErr
}
