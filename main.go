package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/tualang-ai/tualang/agent/extractor"
	"github.com/tualang-ai/tualang/agent/itinerary"
	llmx "github.com/tualang-ai/tualang/agent/llm"
	"github.com/tualang-ai/tualang/agent/planner"
	"github.com/tualang-ai/tualang/agent/prompt"
	"github.com/tualang-ai/tualang/agent/retrieval"
	"github.com/tualang-ai/tualang/agent/synthesizer"
	"github.com/tualang-ai/tualang/agent/tools"
	"github.com/tualang-ai/tualang/agent/vectorstore"
	"github.com/tualang-ai/tualang/server"

	contractx "github.com/tualang-ai/tualang/agent/contract"
	configx "github.com/tualang-ai/tualang/pkg/config"
	logx "github.com/tualang-ai/tualang/pkg/logger"
	openaix "github.com/tualang-ai/tualang/pkg/openai"
)

type AppConfig struct {
	Port             int           `envconfig:"PORT" split_words:"true" default:"8080"`
	DatabaseURL      string        `envconfig:"DATABASE_URL" split_words:"true"`
	IngestPlaces     bool          `envconfig:"INGEST_PLACES" split_words:"true" default:"false"`
	RetrievalTopK    int           `envconfig:"RETRIEVAL_TOP_K" split_words:"true" default:"4"`
	ToolCallTimeout  time.Duration `envconfig:"TOOL_CALL_TIMEOUT" split_words:"true" default:"20s"`
	ToolRetryBackoff time.Duration `envconfig:"TOOL_RETRY_BACKOFF" split_words:"true" default:"500ms"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := configx.MustNew[AppConfig]("APP")

	llmCfg := configx.MustNew[llmx.Config]("LLM")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm config")
	}

	ctx := context.Background()
	prompts := prompt.LoadPromptSet()

	ext := mustExtractor(ctx, *llmCfg, prompts)
	synth := mustSynthesizer(ctx, *llmCfg, prompts)
	answerRunner := mustAnswerRunner(ctx, *llmCfg, prompts)

	embedCfg := llmCfg.OpenAIFor(llmx.RoleAnswer)
	embedder, err := openaix.NewEmbeddingClient(embedCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build embedding client")
	}

	db := openDatabase(appCfg.DatabaseURL)

	index := vectorstore.New()
	if db != nil && appCfg.IngestPlaces {
		ingestPlaces(ctx, db, embedder, index)
	}

	retr, err := retrieval.New(embedder, index, appCfg.RetrievalTopK, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build retriever")
	}

	gateway := buildGateway(db)
	store := buildStore(db)

	svc, err := planner.New(ext, gateway, retr, synth, store, answerRunner, planner.Config{
		CallTimeout:  appCfg.ToolCallTimeout,
		RetryBackoff: appCfg.ToolRetryBackoff,
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build planner service")
	}

	srv := server.New(svc, appCfg.Port, log.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	if db != nil {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("closing database failed")
		}
	}
}

func mustExtractor(ctx context.Context, cfg llmx.Config, prompts prompt.PromptSet) *extractor.Extractor {
	modelCfg := cfg.OpenAIFor(llmx.RoleExtractor)
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build extractor model")
	}
	ext, err := extractor.New(ctx, chatModel, prompts.Extractor, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build extractor")
	}
	return ext
}

func mustSynthesizer(ctx context.Context, cfg llmx.Config, prompts prompt.PromptSet) *synthesizer.Synthesizer {
	modelCfg := cfg.OpenAIFor(llmx.RoleSynthesizer)
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build synthesizer model")
	}
	synth, err := synthesizer.New(ctx, chatModel, prompts.Synthesizer, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build synthesizer")
	}
	return synth
}

func mustAnswerRunner(ctx context.Context, cfg llmx.Config, prompts prompt.PromptSet) llmx.Invoker[map[string]any, *schema.Message] {
	modelCfg := cfg.OpenAIFor(llmx.RoleAnswer)
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build answer model")
	}
	runner, err := llmx.CompileTextGraph(ctx, chatModel, prompts.Answer, "answer.text_graph")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to compile answer graph")
	}
	return runner
}

func openDatabase(dsn string) *bun.DB {
	if dsn == "" {
		log.Warn().Msg("no database configured, lodging and persistence run degraded")
		return nil
	}
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	return bun.NewDB(sqldb, pgdialect.New())
}

func ingestPlaces(ctx context.Context, db *bun.DB, embedder contractx.Embedder, index *vectorstore.Store) {
	ingestor, err := vectorstore.NewIngestor(db, embedder, index, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build places ingestor")
	}
	count, err := ingestor.IngestPlaces(ctx)
	if err != nil {
		log.Error().Err(err).Msg("places ingest failed, retrieval starts empty")
		return
	}
	log.Info().Int("places", count).Msg("places ingested into vector index")
}

func buildGateway(db *bun.DB) *tools.Gateway {
	flightsCfg := configx.MustNew[tools.FlightsConfig]("AMADEUS")
	weatherCfg := configx.MustNew[tools.WeatherConfig]("OPENWEATHER")
	eventsCfg := configx.MustNew[tools.EventsConfig]("TICKETMASTER")
	transportCfg := configx.MustNew[tools.TransportationConfig]("GOOGLE_PLACES")

	return tools.NewGateway(
		tools.NewFlightsAdapter(*flightsCfg),
		tools.NewLodgingAdapter(db),
		tools.NewWeatherAdapter(*weatherCfg),
		tools.NewEventsAdapter(*eventsCfg),
		tools.NewTransportationAdapter(*transportCfg),
		log.Logger,
	)
}

func buildStore(db *bun.DB) contractx.ItineraryStore {
	if db == nil {
		return itinerary.NewMemoryStore()
	}
	store, err := itinerary.NewPostgresStore(db, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build itinerary store")
	}
	return store
}
