//go:build windows

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mindmap_backend/shutdown"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

const serviceStopTimeout = 30 * time.Second

// program adapts serve to the service control manager.
type program struct {
	opts *rootOptions
	mgr  *shutdown.Manager
	done chan error
}

// Start must not block; the server runs in its own goroutine.
func (p *program) Start(s service.Service) error {
	a, err := loadApp(p.opts, os.Stdout)
	if err != nil {
		return err
	}
	p.mgr = shutdown.NewManager(a.logger.Zap())
	p.done = make(chan error, 1)
	go func() {
		p.done <- serve(a, p.mgr)
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.mgr == nil {
		return nil
	}
	p.mgr.Trigger()

	select {
	case err := <-p.done:
		return err
	case <-time.After(serviceStopTimeout):
		return fmt.Errorf("timeout waiting for service to stop")
	}
}

// serviceConfig runs the service from the executable's directory so the
// default .env, temp and data paths resolve next to the binary.
func serviceConfig(opts *rootOptions) *service.Config {
	cfg := &service.Config{
		Name:        "MindMapBackend",
		DisplayName: "PDF Mind Map Backend",
		Description: "Detects PDF topics and builds mind maps through a chat completion backend",
		Option: service.KeyValue{
			"StartType": "automatic",
		},
	}
	if exe, err := os.Executable(); err == nil {
		cfg.WorkingDirectory = filepath.Dir(exe)
	}
	if opts.envFile != "" {
		if abs, err := filepath.Abs(opts.envFile); err == nil {
			cfg.Arguments = []string{"--env-file", abs}
		}
	}
	return cfg
}

func newService(opts *rootOptions) (service.Service, error) {
	s, err := service.New(&program{opts: opts}, serviceConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return s, nil
}

// RunAsService runs under the service control manager when the process was
// started by it. It reports false for interactive sessions.
func RunAsService() (bool, error) {
	if service.Interactive() {
		return false, nil
	}

	opts := &rootOptions{envFile: ".env"}
	for i, arg := range os.Args {
		if arg == "--env-file" && i+1 < len(os.Args) {
			opts.envFile = os.Args[i+1]
		}
	}

	s, err := newService(opts)
	if err != nil {
		return true, err
	}
	if err := s.Run(); err != nil {
		return true, fmt.Errorf("service run failed: %w", err)
	}
	return true, nil
}

func newServiceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the Windows service",
	}

	for _, action := range service.ControlAction {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the Windows service", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := newService(opts)
				if err != nil {
					return err
				}
				if err := service.Control(s, action); err != nil {
					return fmt.Errorf("failed to %s service: %w", action, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Service %s succeeded\n", action)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the Windows service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService(opts)
			if err != nil {
				return err
			}
			status, err := s.Status()
			if err != nil {
				return fmt.Errorf("failed to get service status: %w", err)
			}
			switch status {
			case service.StatusRunning:
				fmt.Fprintln(cmd.OutOrStdout(), "Service is running")
			case service.StatusStopped:
				fmt.Fprintln(cmd.OutOrStdout(), "Service is stopped")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Service status unknown")
			}
			return nil
		},
	})
	return cmd
}
