package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"marhaba/internal/proxy"
	"marhaba/internal/vision"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address (empty = direct)")
	debug := cli.BoolP("debug", "d", false, "Debug logging")
	cli.Parse()

	level := log.LevelWarn
	if *debug {
		level = log.LevelDebug
	}
	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level})))

	if cli.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: marhaba-vision [flags] <image>")
		os.Exit(2)
	}

	_ = godotenv.Load(*envFile)
	key, endpoint := os.Getenv("AZURE_SUBSCRIPTION_KEY"), os.Getenv("AZURE_ENDPOINT")
	if key == "" || endpoint == "" {
		log.Error("AZURE_SUBSCRIPTION_KEY and AZURE_ENDPOINT must be set")
		os.Exit(1)
	}

	httpClient, err := proxy.NewClient(*proxyAddr, proxy.DefaultTimeout)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
		os.Exit(1)
	}

	client, err := vision.New(endpoint, key, httpClient)
	if err != nil {
		log.Error("Invalid vision endpoint", "endpoint", endpoint, "err", err)
		os.Exit(1)
	}

	image, err := vision.ReadImage(cli.Arg(0))
	if err != nil {
		log.Error("Failed to read image", "path", cli.Arg(0), "err", err)
		os.Exit(1)
	}

	analysis, err := client.Analyze(context.Background(), image)
	if err != nil {
		var se *vision.StatusError
		if errors.As(err, &se) {
			log.Error("Vision service rejected the image", "status", se.StatusCode, "body", se.Body)
		} else {
			log.Error("Failed to analyze image", "err", err)
		}
		os.Exit(1)
	}

	if caption, err := analysis.Caption(); err != nil {
		fmt.Println("No description available for this image.")
	} else {
		fmt.Println("Description:", caption)
	}

	fmt.Println("\nTags:")
	for _, tag := range analysis.Tags() {
		fmt.Println("-", tag)
	}
}
