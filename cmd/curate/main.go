// Command curate generates flashcards from a document and walks through reviewing them
// in the terminal before saving.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vnkhanh/e-flashcard-backend/client"
	"github.com/vnkhanh/e-flashcard-backend/logger"
	"github.com/vnkhanh/e-flashcard-backend/models"
)

func main() {
	_ = godotenv.Load()

	var (
		apiURL  = flag.String("api", envOr("FLASHCARDS_API_URL", "http://localhost:8080"), "flashcards API base URL")
		token   = flag.String("token", os.Getenv("FLASHCARDS_TOKEN"), "access token of the signed-in user")
		file    = flag.String("file", "", "source document (.txt, .pdf or .docx)")
		verbose = flag.Bool("v", false, "log requests")
	)
	flag.Parse()

	log := logger.NewNop()
	if *verbose {
		l, err := logger.New(logger.Options{Mode: "dev", Redact: true})
		if err == nil {
			log = l
			defer log.Sync()
		}
	}

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: curate -file notes.txt [-api URL] [-token TOKEN]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api, err := client.New(*apiURL, *token, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	text, err := loadSourceText(ctx, api, *file)
	if err != nil {
		log.Error("could not read source text", "file", *file, "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newApp(api, os.Stdin, os.Stdout).run(ctx, text); err != nil {
		log.Error("curation ended with an error", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSourceText reads .txt files locally and sends other documents to the extract endpoint.
func loadSourceText(ctx context.Context, api *client.Client, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return strings.TrimPrefix(string(data), "\ufeff"), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	out, err := api.ExtractSourceText(ctx, filepath.Base(path), f)
	if err != nil {
		return "", err
	}
	if !out.WithinLimits {
		return "", fmt.Errorf("extracted text has %d characters, need %d to %d", out.Length, models.SourceTextMinLength, models.SourceTextMaxLength)
	}
	return out.SourceText, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
