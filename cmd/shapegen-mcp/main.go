package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ironsheep/shapegen-mcp/internal/config"
	"github.com/ironsheep/shapegen-mcp/internal/export"
	"github.com/ironsheep/shapegen-mcp/internal/logger"
	"github.com/ironsheep/shapegen-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	server.Version = Version

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("shapegen-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "export":
			os.Exit(runExport(os.Args[2:]))
		}
	}

	os.Exit(runServe(os.Args[1:]))
}

func printHelp() {
	fmt.Println("shapegen-mcp - synthetic shapes dataset generator")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  shapegen-mcp [--config file]            Serve MCP over stdin/stdout")
	fmt.Println("  shapegen-mcp export [options]           Write a dataset to disk")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println("  --config FILE    YAML configuration file")
	fmt.Println()
	fmt.Println("Export options:")
	fmt.Println("  --out DIR        Output directory (export.output_dir)")
	fmt.Println("  --name NAME      Dataset name (export.name)")
	fmt.Println("  --train N        Training samples (export.train_count)")
	fmt.Println("  --val N          Validation samples (export.val_count)")
	fmt.Println("  --seed N         Base seed; val uses seed+1 (dataset.seed)")
	fmt.Println("  --reset          Remove an existing dataset directory first")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  SHAPEGEN_SERVER_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println("  SHAPEGEN_DATASET_HEIGHT=256        Override any config key")
	fmt.Println()
	fmt.Println("The server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

// setup loads configuration and installs the logger.
func setup(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Server.Mode, cfg.Server.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("shapegen-mcp", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := setup(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shapegen-mcp: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.S().Debugf("shapegen MCP server %s (built %s, commit %s)", Version, BuildTime, GitCommit)

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		logger.L().Error("server error", zap.Error(err))
		return 1
	}
	return 0
}

func runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	out := fs.String("out", "", "output directory")
	name := fs.String("name", "", "dataset name")
	train := fs.Int("train", -1, "training samples")
	val := fs.Int("val", -1, "validation samples")
	seed := fs.Uint64("seed", 0, "base seed")
	reset := fs.Bool("reset", false, "remove an existing dataset directory first")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := setup(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shapegen-mcp export: %v\n", err)
		return 1
	}
	defer logger.Sync()

	opts := export.OptionsFromConfig(cfg)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			opts.OutputDir = *out
		case "name":
			opts.Name = *name
		case "train":
			opts.TrainCount = *train
		case "val":
			opts.ValCount = *val
		case "seed":
			opts.Seed = *seed
		case "reset":
			opts.Reset = *reset
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := export.Export(ctx, opts)
	if err != nil {
		logger.L().Error("export failed", zap.Error(err))
		return 1
	}
	fmt.Printf("wrote %d train and %d val samples to %s\n", res.Train, res.Val, res.Dir)
	return 0
}
