// Command docqa-cli is the interactive terminal client: it ingests the
// documents directory, then answers questions in a loop until "exit".
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	docqa "github.com/kailas-cloud/docqa"
	"github.com/kailas-cloud/docqa/internal/config"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/tui"
	"github.com/kailas-cloud/docqa/internal/version"
)

func main() {
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docqa: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI; logs go to a file next to the index.
	logPath := filepath.Join(cfg.Index.Dir, "docqa-cli.log")
	if err := os.MkdirAll(cfg.Index.Dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "docqa: create %s: %v\n", cfg.Index.Dir, err)
		os.Exit(1)
	}
	logger, err := logpkg.NewFileLogger(logPath, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docqa: create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docqa CLI",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
	)

	client, err := docqa.Open(context.Background(), docqa.WithConfig(cfg), docqa.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "docqa: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx := context.Background()

	fmt.Println("Indexing documents...")
	if reports, err := client.IngestDir(ctx, cfg.Documents.Dir); err != nil {
		fmt.Fprintf(os.Stderr, "some documents failed to index: %v\n", err)
	} else if len(reports) > 0 {
		fmt.Printf("Indexed %d new document(s).\n", len(reports))
	}
	fmt.Printf("%d segment(s) in the index.\n", client.Index().Len())

	model := tui.New(ctx, client.Session())
	program := tea.NewProgram(model, tea.WithAltScreen())

	final, err := program.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "docqa: %v\n", err)
		os.Exit(1)
	}

	// Leave the conversation on the scrollback after the alt screen closes.
	if m, ok := final.(tui.Model); ok {
		if transcript := m.Transcript(); transcript != "" {
			fmt.Print(transcript)
		}
	}
}
