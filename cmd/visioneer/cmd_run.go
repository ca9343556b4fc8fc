package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagRunOnce     bool
	flagRunInterval time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the agent cycle for a project",
	Long: `run executes the agent cycle driver's wake-up / prioritise /
coherence-check / execute / persist / rewrite-orientation sequence.
By default it loops, sleeping flagRunInterval between cycles, until
interrupted; --once runs a single cycle and exits.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&flagRunOnce, "once", false, "run a single cycle and exit")
	runCmd.Flags().DurationVar(&flagRunInterval, "interval", 10*time.Second, "sleep between cycles when looping")
}

func runRun(cmd *cobra.Command, args []string) error {
	r, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	since := time.Now().UTC()
	for {
		cycleStart := time.Now().UTC()
		result, err := r.driver.RunCycle(ctx, since)
		if err != nil {
			logger.Error("cycle failed", zap.Error(err))
			if flagRunOnce {
				return err
			}
		} else {
			logger.Info("cycle complete",
				zap.String("status", string(result.State.Status)),
				zap.String("executed_task", result.ExecutedTaskID),
				zap.String("executed_status", result.ExecutedStatus),
				zap.Int("warnings", result.Warnings),
				zap.Bool("pivoted", result.Pivoted),
				zap.Uint64("tick", uint64(result.Tick)),
			)
		}
		since = cycleStart

		if flagRunOnce {
			return nil
		}

		select {
		case <-ctx.Done():
			fmt.Println("visioneer: stopped")
			return nil
		case <-time.After(flagRunInterval):
		}
	}
}
