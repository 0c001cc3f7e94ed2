// Command layoutopt runs site layout optimizations described by
// LayoutOptimization files.
package main

import (
	"context"
	goflag "flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/siteforge/layout-optimizer/apis/layout/v1alpha1"
	"github.com/siteforge/layout-optimizer/pkg/multiobjective/util"
	"github.com/siteforge/layout-optimizer/pkg/sitelayout"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	klog.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return usageError("missing command")
	}
	switch args[0] {
	case "run":
		return runOptimize(ctx, args[1:], stdout)
	case "validate":
		return runValidate(args[1:], stdout)
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	klogFlags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(klogFlags)
	fs.AddGoFlagSet(klogFlags)
	return fs
}

func runOptimize(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("run")
	configPath := fs.StringP("config", "c", "", "LayoutOptimization file (YAML or JSON)")
	outPath := fs.StringP("out", "o", "", "write the OptimizationResult as YAML to this file")
	plotPath := fs.String("plot", "", "write an HTML plot of the front and convergence to this file")
	generations := fs.Int("generations", -1, "override spec.algorithm.generations")
	seed := fs.Uint64("seed", 0, "override spec.algorithm.seed")
	workers := fs.Int("workers", 0, "override spec.algorithm.workers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return usageError("run: --config is required")
	}

	cfg, err := v1alpha1.Load(*configPath)
	if err != nil {
		return err
	}
	if *generations >= 0 {
		cfg.Spec.Algorithm.Generations = generations
	}
	if fs.Changed("seed") {
		cfg.Spec.Algorithm.Seed = seed
	}
	if *workers > 0 {
		cfg.Spec.Algorithm.Workers = workers
	}

	logger := klog.FromContext(ctx)
	start := time.Now()
	result, runErr := sitelayout.Optimize(ctx, cfg, nil)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	if *outPath != "" {
		data, err := result.ToAPI().Marshal()
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			return err
		}
		logger.V(1).Info("result written", "path", *outPath, "bytes", len(data))
	}
	if *plotPath != "" {
		if err := util.PlotRun(*plotPath, cfg.Name, result.Run); err != nil {
			return fmt.Errorf("plotting: %w", err)
		}
	}

	printSummary(stdout, result, elapsed)
	if runErr != nil {
		return fmt.Errorf("optimization interrupted after %d generations: %w", result.Generations, runErr)
	}
	return nil
}

func runValidate(args []string, stdout io.Writer) error {
	fs := newFlagSet("validate")
	configPath := fs.StringP("config", "c", "", "LayoutOptimization file (YAML or JSON)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return usageError("validate: --config is required")
	}
	cfg, err := v1alpha1.Load(*configPath)
	if err != nil {
		return err
	}
	printConfig(stdout, cfg)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: layoutopt <run|validate> --config FILE [--out FILE] [--plot FILE] [flags]", msg)
}
