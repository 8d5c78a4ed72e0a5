package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/rs/zerolog"

	"github.com/ironsheep/manga-panels-mcp/internal/imaging"
	"github.com/ironsheep/manga-panels-mcp/internal/logging"
	"github.com/ironsheep/manga-panels-mcp/internal/segment"
	"github.com/ironsheep/manga-panels-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Environment variables read at startup, besides the logging ones.
const (
	envMaxDimension = "MANGA_PANELS_MAX_DIMENSION"
	envOCRLanguage  = "MANGA_PANELS_OCR_LANG"
	envCachePages   = "MANGA_PANELS_CACHE_PAGES"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("manga-panels-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	// stdout is for MCP protocol (or CLI output); logs go to stderr
	logger := logging.FromEnv()

	opts, err := optionsFromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "segment":
			if len(os.Args) != 3 {
				fatalUsage("segment <image>")
			}
			if err := runSegment(opts, logger, os.Args[2]); err != nil {
				logger.Fatal().Err(err).Msg("segment failed")
			}
			return
		case "overlay":
			if len(os.Args) != 4 {
				fatalUsage("overlay <image> <out.png>")
			}
			if err := runOverlay(opts, logger, os.Args[2], os.Args[3]); err != nil {
				logger.Fatal().Err(err).Msg("overlay failed")
			}
			return
		default:
			fatalUsage("[segment|overlay] ...")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Msg("manga panels MCP server starting")

	srv := server.New(opts, logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func printHelp() {
	fmt.Println("manga-panels-mcp - MCP server for manga panel segmentation")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  manga-panels-mcp                          Serve MCP over stdin/stdout")
	fmt.Println("  manga-panels-mcp segment <image>          Print detected panels as JSON")
	fmt.Println("  manga-panels-mcp overlay <image> <out>    Write a PNG with panels outlined")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  MANGA_PANELS_LOG_LEVEL=debug       debug, info, warn (default), error, off")
	fmt.Println("  MANGA_PANELS_LOG_FORMAT=console    Human-readable logs instead of JSON")
	fmt.Println("  MANGA_PANELS_MAX_DIMENSION=4096    Longest page side used for detection, 0 for no cap")
	fmt.Println("  MANGA_PANELS_OCR_LANG=jpn          Default Tesseract language for manga_ocr_panels")
	fmt.Println("  MANGA_PANELS_CACHE_PAGES=32        Decoded pages kept in memory, 0 for no limit")
	fmt.Println()
	fmt.Println("Configure the server in your MCP client (e.g., Claude Desktop).")
}

func fatalUsage(usage string) {
	fmt.Fprintf(os.Stderr, "usage: manga-panels-mcp %s\n", usage)
	os.Exit(2)
}

// optionsFromEnv builds server options from the defaults and the environment.
func optionsFromEnv() (server.Options, error) {
	opts := server.DefaultOptions()
	opts.Version = Version

	if v := os.Getenv(envMaxDimension); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", envMaxDimension, err)
		}
		opts.Segment.MaxDimension = n
	}
	if err := opts.Segment.Validate(); err != nil {
		return opts, err
	}

	if v := os.Getenv(envCachePages); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", envCachePages, err)
		}
		opts.CacheCapacity = n
	}

	if v := os.Getenv(envOCRLanguage); v != "" {
		opts.OCRLanguage = v
	}
	return opts, nil
}

func runSegment(opts server.Options, logger zerolog.Logger, path string) error {
	img, err := imgio.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	seg := segment.New(opts.Segment, logging.Component(logger, "segment"))
	res := seg.Segment(context.Background(), img)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runOverlay(opts server.Options, logger zerolog.Logger, in, out string) error {
	img, err := imgio.Open(in)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", in, err)
	}

	seg := segment.New(opts.Segment, logging.Component(logger, "segment"))
	res := seg.Segment(context.Background(), img)

	canvas := imaging.RenderPanelOverlay(img, res.OverlayBoxes(), imaging.OutlineWidth(img))

	if err := imgio.Save(out, canvas, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	logger.Info().
		Str("output", out).
		Int("panels", len(res.Panels)).
		Float64("confidence", res.Confidence).
		Bool("fallback", res.Fallback).
		Msg("overlay written")
	return nil
}
