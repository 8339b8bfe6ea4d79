package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"siteforge/internal/serve"
	"siteforge/optimizer/config"
	"siteforge/optimizer/run"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "optimize":
		if err := optimize(ctx, args); err != nil {
			fmt.Printf("❌ Optimization failed: %v\n", err)
			os.Exit(1)
		}
	case "serve":
		if err := serve.Run(ctx, args); err != nil {
			fmt.Printf("❌ Server failed: %v\n", err)
			os.Exit(1)
		}
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func optimize(ctx context.Context, args []string) error {
	cfg := config.Load(args)
	buildCfg := config.LoadBuildConfig()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	o := run.New(cfg, buildCfg, afero.NewOsFs(), logger)
	return o.Run(ctx)
}

func printUsage() {
	fmt.Println("Usage: siteforge <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  optimize       Minify the built site and generate PWA/cache artifacts")
	fmt.Println("  serve          Start the preview server")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nFlags for optimize:")
	fmt.Println("  -dir           Built site directory (default: public)")
	fmt.Println("  -baseurl       Base URL embedded in sw.js")
	fmt.Println("  -compress      Also encode WebP variants of images")
	fmt.Println("  -force         Force regeneration of artifacts")
	fmt.Println("  -dev           Skip PWA artifacts")
	fmt.Println("  -verify-origin Verify the offline manifest against a deployed origin URL")
}
