package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/jobpulse/jobpulse/internal/profile"
	"github.com/jobpulse/jobpulse/plugin/ai"
	"github.com/jobpulse/jobpulse/plugin/scraper/remoteok"
	"github.com/jobpulse/jobpulse/server/answer"
	"github.com/jobpulse/jobpulse/server/httpapi"
	"github.com/jobpulse/jobpulse/server/ingest"
	"github.com/jobpulse/jobpulse/server/retrieval"
	syncrunner "github.com/jobpulse/jobpulse/server/runner/sync"
	"github.com/jobpulse/jobpulse/server/vectorindex"
	"github.com/jobpulse/jobpulse/store"
	"github.com/jobpulse/jobpulse/store/db"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "jobpulse",
	Short: "Job-posting RAG pipeline: scrape, index, and ask",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the background sync runner",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pipe, err := buildPipeline(ctx, p)
		if err != nil {
			return err
		}
		defer pipe.store.Close()

		srv := httpapi.NewServer(p, pipe.store, pipe.index, pipe.answerService, pipe.syncRunner,
			retrieval.NewSimpleStrategy(), retrieval.NewFusionStrategy(pipe.llmService))

		slog.Info("jobpulse started",
			"version", p.Version,
			"mode", p.Mode,
			"driver", p.Driver,
			"addr", fmt.Sprintf("%s:%d", p.Addr, p.Port))

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			pipe.syncRunner.Run(ctx)
			return nil
		})
		g.Go(func() error {
			return srv.Start(ctx)
		})
		return g.Wait()
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch postings from RemoteOK (or a local JSON dump) and insert them into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		pipe, err := buildPipeline(ctx, p)
		if err != nil {
			return err
		}
		defer pipe.store.Close()

		jobs, err := fetchJobs(ctx, cmd)
		if err != nil {
			return err
		}
		raws := make([]*ingest.RawPosting, 0, len(jobs))
		for _, job := range jobs {
			raws = append(raws, ingest.FromRemoteOKJob(job))
		}
		result, err := pipe.ingestService.Ingest(ctx, raws)
		if err != nil {
			return err
		}
		fmt.Printf("scraped %d postings: %d inserted, %d skipped, %d failed\n",
			len(raws), result.Inserted, result.Skipped, result.Failed)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Drain pending postings into the vector index",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		pipe, err := buildPipeline(ctx, p)
		if err != nil {
			return err
		}
		defer pipe.store.Close()

		result, err := pipe.syncRunner.Drain(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("synced %d postings: %d succeeded, %d failed\n",
			result.Attempted, result.Succeeded, result.Failed)
		if result.Stats != nil {
			fmt.Printf("store: %d total, %d embedded, %d pending; index: %d entries\n",
				result.Stats.Total, result.Stats.Embedded, result.Stats.Pending, result.IndexCount)
		}
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed postings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		pipe, err := buildPipeline(ctx, p)
		if err != nil {
			return err
		}
		defer pipe.store.Close()

		if strategyName, _ := cmd.Flags().GetString("strategy"); strategyName == "fusion" {
			pipe.answerService.SetStrategy(retrieval.NewFusionStrategy(pipe.llmService))
		}

		question := strings.Join(args, " ")
		fmt.Println(pipe.answerService.Ask(ctx, question))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record store and vector index counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		pipe, err := buildPipeline(ctx, p)
		if err != nil {
			return err
		}
		defer pipe.store.Close()

		stats, err := pipe.store.GetPostingStats(ctx)
		if err != nil {
			return err
		}
		count, err := pipe.index.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("total: %d\nembedded: %d\npending: %d\nindex entries: %d\n",
			stats.Total, stats.Embedded, stats.Pending, count)
		return nil
	},
}

// fetchJobs reads postings from the --file dump when given, otherwise
// from the live RemoteOK API.
func fetchJobs(ctx context.Context, cmd *cobra.Command) ([]*remoteok.Job, error) {
	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		return remoteok.NewClient().Fetch(ctx)
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return remoteok.DecodeJobs(f)
}

// pipeline bundles the wired services behind a profile.
type pipeline struct {
	store         *store.Store
	index         vectorindex.Index
	llmService    ai.LLMService
	ingestService *ingest.Service
	answerService *answer.Service
	syncRunner    *syncrunner.Runner
}

func buildPipeline(ctx context.Context, p *profile.Profile) (*pipeline, error) {
	driver, err := db.NewDBDriver(ctx, p)
	if err != nil {
		return nil, err
	}
	st := store.New(driver, p)

	aiConfig := ai.NewConfigFromProfile(p)
	if err := aiConfig.Validate(); err != nil {
		return nil, err
	}
	embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		return nil, err
	}
	llmService, err := ai.NewLLMService(&aiConfig.LLM)
	if err != nil {
		return nil, err
	}

	// sqlite keeps vectors in a local JSON index file; postgres keeps
	// them in pgvector next to the postings.
	var index vectorindex.Index
	if p.Driver == "postgres" {
		index = vectorindex.NewPGVectorIndex(st, embeddingService)
	} else {
		index, err = vectorindex.NewLocalIndex(p.IndexPath, embeddingService)
		if err != nil {
			return nil, err
		}
	}

	return &pipeline{
		store:         st,
		index:         index,
		llmService:    llmService,
		ingestService: ingest.NewService(st),
		answerService: answer.NewService(index, llmService, retrieval.NewSimpleStrategy()),
		syncRunner:    syncrunner.NewRunner(st, index, p.SyncBatchSize),
	}, nil
}

func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version,
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func init() {
	// A .env file is optional; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().String("mode", "dev", `mode of the server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of the server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of the server")
	rootCmd.PersistentFlags().String("data", ".", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	askCmd.Flags().String("strategy", "simple", `retrieval strategy, "simple" or "fusion"`)
	scrapeCmd.Flags().String("file", "", "seed from a local JSON dump instead of the live API")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("jobpulse")
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, scrapeCmd, syncCmd, askCmd, statsCmd)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
