package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"go-camera-inspector/internal/config"
	"go-camera-inspector/internal/container"
	"go-camera-inspector/internal/logger"
)

var (
	// Color printers
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
)

func printInfo(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", successColor("[+]"), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to the YAML configuration file")
		count      = flag.Int("count", 3, "Number of recent photos to pull and analyze")
		screenshot = flag.Bool("screenshot", false, "Also capture a device screenshot into the images directory")
		serve      = flag.Bool("serve", false, "Serve the reports over HTTP after the run")
		addr       = flag.String("addr", "", "Listen address for -serve (overrides config)")
	)
	flag.Parse()

	// Optional .env for LOG_LEVEL and friends.
	_ = godotenv.Load()
	logger.Configure()

	if *count < 1 {
		printError("Invalid -count %d: must be at least 1", *count)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		printError("Configuration error: %v", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Serve.Addr = *addr
	}
	if *serve {
		cfg.Serve.Enabled = true
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		printError("Startup failed: %v", err)
		os.Exit(1)
	}

	printInfo("Pulling the %d most recent photos from %s", *count, cfg.ADB.CameraDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *screenshot {
		shotPath := filepath.Join(cfg.Output.ImagesDir, "screenshot.png")
		if err := os.MkdirAll(cfg.Output.ImagesDir, 0o755); err != nil {
			printWarning("Cannot create images directory: %v", err)
		} else if err := c.Bridge().Screenshot(ctx, shotPath); err != nil {
			printWarning("Screenshot failed: %v", err)
		} else {
			printSuccess("Screenshot saved to %s", shotPath)
		}
	}

	result, err := c.RunService().Run(ctx, *count)
	if err != nil {
		printError("Run failed: %v", err)
		os.Exit(1)
	}

	payload := result.Payload
	printSuccess("Analyzed %d image(s) on %s %s", len(payload.Images),
		payload.Device.Manufacturer, payload.Device.Model)
	printSuccess("Passed %d/%d tests (%.1f%%)", payload.PassedTests,
		payload.TotalTests, payload.PassRate)
	for _, rec := range payload.Recommendations {
		printWarning("%s", rec)
	}
	printSuccess("Report written to %s", result.ReportPath)

	if !cfg.Serve.Enabled {
		return
	}

	server := &http.Server{
		Addr:         cfg.Serve.Addr,
		Handler:      c.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logrus.WithField("address", cfg.Serve.Addr).Info("Starting report server")
		printInfo("Serving reports on %s", cfg.Serve.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}
	logrus.Info("Server exited")
}
