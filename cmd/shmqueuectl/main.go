// shmqueuectl is operational tooling for shmqueue: creating a backing
// file ahead of time and inspecting a live one. It is deliberately not
// a benchmarking harness -- no throughput/latency measurement, process
// spawning, or transport comparison lives here, only file lifecycle
// management.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pault.ag/go/shmqueue"
)

var rootCmd = &cobra.Command{
	Use:   "shmqueuectl",
	Short: "Create and inspect shmqueue shared-memory queue files",
}

var createConfigPath string

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new queue backing file from a YAML config",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		defer log.Sync() //nolint:errcheck

		cfg, err := LoadConfig(createConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		backend, err := parseBackend(cfg.Backend)
		if err != nil {
			return err
		}

		q, err := shmqueue.Create(cfg.Path, cfg.Capacity, backend, shmqueue.WithLogger(log))
		if err != nil {
			return fmt.Errorf("failed to create queue: %w", err)
		}
		defer q.Close()

		log.Infow("queue created", "path", cfg.Path, "capacity", cfg.Capacity, "backend", cfg.Backend)
		return nil
	},
}

var inspectBackend string

var inspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "Attach to an existing queue file and print its capacity and size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		defer log.Sync() //nolint:errcheck

		backend, err := parseBackend(inspectBackend)
		if err != nil {
			return err
		}

		q, err := shmqueue.Attach(args[0], backend, shmqueue.WithLogger(log))
		if err != nil {
			return fmt.Errorf("failed to attach queue: %w", err)
		}
		defer q.Close()

		fmt.Printf("path=%s backend=%s capacity=%d size=%d\n", args[0], inspectBackend, q.Capacity(), q.Size())
		return nil
	},
}

func parseBackend(name string) (shmqueue.BackendKind, error) {
	switch name {
	case "lockfree", "":
		return shmqueue.LockFree, nil
	case "blocking":
		return shmqueue.Blocking, nil
	default:
		return 0, fmt.Errorf("unknown backend %q: want lockfree or blocking", name)
	}
}

func newLogger() *zap.SugaredLogger {
	config := zap.NewDevelopmentConfig()
	config.Development = false
	logger, err := config.Build()
	if err != nil {
		// zap's own construction failing means stderr is unusable for
		// structured logging; fall back to a no-op rather than panic.
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

func init() {
	createCmd.Flags().StringVarP(&createConfigPath, "config", "c", "", "Path to the queue YAML config (required)")
	createCmd.MarkFlagRequired("config") //nolint:errcheck

	inspectCmd.Flags().StringVar(&inspectBackend, "backend", "lockfree", "Backend the target file was created with: lockfree or blocking")

	rootCmd.AddCommand(createCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
