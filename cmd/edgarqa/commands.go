package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/edgarqa/internal/agent"
	"github.com/kalambet/edgarqa/internal/config"
	"github.com/kalambet/edgarqa/internal/index"
	"github.com/kalambet/edgarqa/internal/llm"
	"github.com/kalambet/edgarqa/internal/retrieval"
	"github.com/kalambet/edgarqa/internal/synthesis"
	"github.com/kalambet/edgarqa/internal/websearch"
)

// app bundles the wired core for the CLI commands.
type app struct {
	cfg       config.Config
	store     *index.Store
	indexer   *index.Indexer
	retriever *retrieval.Retriever
	agent     *agent.Agent
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing index store: %v\n", err)
	}
}

// buildApp wires config, storage, the Gemini client, retrieval and the agent.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := index.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening index store: %w", err)
	}

	gemini, err := llm.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	embedder := retrieval.NewEmbedder(gemini)
	retriever := retrieval.NewRetriever(embedder, store, cfg.Document.SourceID, float32(cfg.Retrieval.MinScore))
	indexer := index.NewIndexer(store, embedder)
	synth := synthesis.New(gemini, cfg.Retrieval.MaxContextTokens)

	var search agent.SearchTool
	if cfg.Tavily.APIKey != "" {
		search = websearch.NewClient(cfg.Tavily.APIKey)
	} else {
		printWarning("TAVILY_API_KEY not set; live web search is disabled")
	}

	return &app{
		cfg:       cfg,
		store:     store,
		indexer:   indexer,
		retriever: retriever,
		agent:     agent.New(retriever, search, synth, cfg.Retrieval.TopK),
	}, nil
}

// --- index ---

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Parse, chunk and embed the filing into the local index",
	RunE: func(cmd *cobra.Command, args []string) error {
		rebuild, _ := cmd.Flags().GetBool("rebuild")

		ctx := cmd.Context()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		printStep("Indexing %s", a.cfg.Document.Path)
		start := time.Now()

		var count int
		if rebuild {
			count, err = a.indexer.Build(ctx, a.cfg.Document.Path, a.cfg.Document.SourceID)
			if err != nil {
				return fmt.Errorf("building index: %w", err)
			}
			printSuccess("Indexed %d chunks in %s", count, time.Since(start).Round(time.Millisecond))
			return nil
		}

		count, rebuilt, err := a.indexer.Ensure(ctx, a.cfg.Document.Path, a.cfg.Document.SourceID)
		if err != nil {
			return fmt.Errorf("ensuring index: %w", err)
		}
		if rebuilt {
			printSuccess("Indexed %d chunks in %s", count, time.Since(start).Round(time.Millisecond))
		} else {
			printSuccess("Index already built (%d chunks); use --rebuild to force", count)
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().Bool("rebuild", false, "drop the existing index and rebuild from the filing")
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the filing",
	Long: `Ask a question about the filing.

With a question argument, answers once and exits. Without one, starts an
interactive loop reading questions from stdin.

Examples:
  edgarqa ask "What was the total revenue according to the 10-K?"
  edgarqa ask`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		// The index must exist before any question can be answered; build it
		// on first use so `ask` works out of the box.
		count, rebuilt, err := a.indexer.Ensure(ctx, a.cfg.Document.Path, a.cfg.Document.SourceID)
		if err != nil {
			return fmt.Errorf("ensuring index: %w", err)
		}
		if rebuilt {
			printSuccess("Indexed %d chunks", count)
		}

		if len(args) > 0 {
			return askOnce(ctx, a, strings.Join(args, " "))
		}
		return askLoop(ctx, a)
	},
}

func askOnce(ctx context.Context, a *app, question string) error {
	printStep("%s", a.agent.Plan(question))

	answer, err := a.agent.Ask(ctx, question)
	if err != nil {
		// A degraded answer still carries the gathered evidence; show it
		// alongside the error instead of discarding it.
		if answer.Text == "" {
			return err
		}
		printWarning("%v", err)
	}

	printAnswer(answer)
	return nil
}

func askLoop(ctx context.Context, a *app) error {
	fmt.Fprintln(os.Stderr, colorize(colorBold, "edgarqa interactive mode. Ask about the filing; 'exit' to quit."))

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for {
		fmt.Fprint(os.Stderr, colorize(colorCyan, "\n? "))
		if !scanner.Scan() {
			fmt.Fprintln(os.Stderr)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		if err := askOnce(ctx, a, question); err != nil {
			printError("%v", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func printAnswer(answer synthesis.Answer) {
	fmt.Println(answer.Text)

	if len(answer.Citations) > 0 {
		fmt.Println()
		fmt.Println(colorize(colorBold, "Sources:"))
		for i, c := range answer.Citations {
			fmt.Printf("  [%d] %s\n", i+1, c.Ref())
		}
	}
	for _, note := range answer.Notes {
		printWarning("%s", note)
	}
	if len(answer.ToolsUsed) > 0 {
		fmt.Fprintf(os.Stderr, "%s %s\n", colorize(colorBold, "Tools:"), strings.Join(answer.ToolsUsed, ", "))
	}
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("config error: %v", err)
			return nil
		}

		printStatus("Filing", "%s", cfg.Document.Path)
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		printStatus("Model", "%s", cfg.Gemini.Model)
		if cfg.Tavily.APIKey != "" {
			printStatus("Web search", "enabled")
		} else {
			printStatus("Web search", "disabled (no TAVILY_API_KEY)")
		}

		store, err := index.Open(cfg.Storage.DataDir)
		if err != nil {
			printError("index store: %v", err)
		} else {
			defer store.Close()
			count, err := store.Count(cfg.Document.SourceID)
			if err != nil {
				printError("index: %v", err)
			} else if count == 0 {
				printStatus("Index", "empty (run 'edgarqa index')")
			} else {
				printStatus("Index", "%d chunks", count)
				if sections, err := store.Sections(cfg.Document.SourceID); err == nil {
					printStatus("Sections", "%s", strings.Join(sections, ", "))
				}
			}
		}

		// Check server health.
		healthURL := fmt.Sprintf("http://127.0.0.1:%d/healthz", cfg.Server.Port)
		client := &http.Client{Timeout: 2 * time.Second}
		resp, err := client.Get(healthURL)
		if err != nil {
			printStatus("Server", "stopped")
		} else {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				printStatus("Server", "running on port %d", cfg.Server.Port)
			} else {
				printStatus("Server", "unhealthy (HTTP %d)", resp.StatusCode)
			}
		}
		return nil
	},
}
