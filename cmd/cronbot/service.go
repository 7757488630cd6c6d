package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/flemzord/cronbot/pkg/app"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// program adapts app.Run to the service manager's Start/Stop callbacks.
type program struct {
	params app.RunParams

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

// Start must not block; the scheduler runs in its own goroutine.
func (p *program) Start(s service.Service) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	p.cancel, p.done = cancel, done
	go func() {
		err := app.Run(ctx, p.params)
		if err != nil && s != nil {
			if l, lerr := s.Logger(nil); lerr == nil {
				_ = l.Error(err)
			}
		}
		done <- err
	}()
	return nil
}

// Stop cancels the run and waits for shutdown to finish. Later calls
// return nil.
func (p *program) Stop(service.Service) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel == nil {
		return nil
	}
	p.cancel()
	err := <-p.done
	p.cancel, p.done = nil, nil
	return err
}

func newService(params app.RunParams) (service.Service, error) {
	args := []string{"start"}
	if params.ConfigPath != "" {
		abs, err := filepath.Abs(params.ConfigPath)
		if err != nil {
			return nil, err
		}
		params.ConfigPath = abs
		args = append(args, "-c", abs)
	}
	if params.DataDir != "" {
		abs, err := filepath.Abs(params.DataDir)
		if err != nil {
			return nil, err
		}
		params.DataDir = abs
		args = append(args, "--data-dir", abs)
	}
	return service.New(&program{params: params}, &service.Config{
		Name:        "cronbot",
		DisplayName: "cronbot",
		Description: "Chat-driven scheduler for named cron jobs",
		Arguments:   args,
	})
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage cronbot as an OS service",
	}
	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	cmd.PersistentFlags().String("data-dir", "", "Directory for persistent data")

	for _, action := range service.ControlAction {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the cronbot service", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := serviceFromFlags(cmd)
				if err != nil {
					return err
				}
				if err := service.Control(s, action); err != nil {
					return fmt.Errorf("service %s: %w", action, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "service %s: ok\n", action)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the cronbot service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := serviceFromFlags(cmd)
			if err != nil {
				return err
			}
			status, err := s.Status()
			if err != nil {
				return fmt.Errorf("service status: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), statusText(status))
			return nil
		},
	})
	return cmd
}

func serviceFromFlags(cmd *cobra.Command) (service.Service, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	return newService(app.RunParams{
		ConfigPath: cfgPath,
		DataDir:    dataDir,
		Version:    version,
		Commit:     commit,
		Date:       date,
	})
}

func statusText(s service.Status) string {
	switch s {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
