// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/convivio/convivio/internal/application/adaptation"
	"github.com/convivio/convivio/internal/application/planner"
	"github.com/convivio/convivio/internal/application/retention"
	"github.com/convivio/convivio/internal/application/retrieval"
	"github.com/convivio/convivio/internal/application/technique"
	domainOntology "github.com/convivio/convivio/internal/domain/ontology"
	"github.com/convivio/convivio/internal/infrastructure/ai/openai"
	"github.com/convivio/convivio/internal/infrastructure/config"
	"github.com/convivio/convivio/internal/infrastructure/embedding"
	"github.com/convivio/convivio/internal/infrastructure/ontology"
	"github.com/convivio/convivio/internal/infrastructure/persistence/casefile"
	gormRepo "github.com/convivio/convivio/internal/infrastructure/persistence/gorm"
	"github.com/convivio/convivio/internal/infrastructure/persistence/sqlite"
	"github.com/convivio/convivio/internal/ports/inbound"
	"github.com/convivio/convivio/internal/ports/outbound"
	"github.com/convivio/convivio/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	KnowledgeModule,
	StorageModule,
	ServiceModule,
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// KnowledgeModule provides the read-only reference data: ontology tables,
// embedding index and the shared random source.
var KnowledgeModule = fx.Provide(
	func(cfg *config.Config) *rand.Rand {
		seed := cfg.App.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return rand.New(rand.NewSource(seed))
	},

	func(cfg *config.Config, log *zap.Logger) (*domainOntology.KnowledgeBase, error) {
		return ontology.Load(cfg.Ontology.Dir, log)
	},

	fx.Annotate(
		func(cfg *config.Config, rng *rand.Rand, log *zap.Logger) (*embedding.Index, error) {
			return embedding.Load(cfg.Embedding.Path, rng, log)
		},
		fx.As(new(outbound.VectorIndex)),
	),
)

// StorageModule provides the case-base repository, file or SQLite backed.
var StorageModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.CaseRepository, error) {
		switch cfg.CaseBase.Driver {
		case "sqlite":
			logLevel := gormLogger.Silent
			if cfg.App.Debug {
				logLevel = gormLogger.Info
			}
			db, err := sqlite.SetupDatabase(cfg.CaseBase.Path, logLevel)
			if err != nil {
				return nil, fmt.Errorf("failed to setup SQLite case base: %w", err)
			}
			log.Info("Connected to SQLite case base", zap.String("path", cfg.CaseBase.Path))
			return gormRepo.NewCaseRepository(db), nil
		default:
			return casefile.New(cfg.CaseBase.Path, log)
		}
	},
)

// ServiceModule provides the planning pipeline services
var ServiceModule = fx.Provide(
	func(log *zap.Logger) *retrieval.Retriever {
		return retrieval.New(retrieval.DefaultWeights(), retrieval.DefaultParams(), log)
	},

	func(kb *domainOntology.KnowledgeBase, vectors outbound.VectorIndex, rng *rand.Rand, log *zap.Logger) *adaptation.Adapter {
		return adaptation.New(kb, vectors, rng, log)
	},

	func(cfg *config.Config) adaptation.Options {
		return adaptation.Options{
			Strategy:        cfg.Adaptation.Strategy,
			Temperature:     cfg.Adaptation.Temperature,
			Intensity:       cfg.Adaptation.Intensity,
			MaxFillIns:      cfg.Adaptation.MaxFillIns,
			CandidateWindow: cfg.Adaptation.CandidateWindow,
		}
	},

	func(kb *domainOntology.KnowledgeBase, log *zap.Logger) *technique.Selector {
		return technique.New(kb, log)
	},

	func(cfg *config.Config, retriever *retrieval.Retriever, repo outbound.CaseRepository, log *zap.Logger) *retention.Manager {
		return retention.New(retention.Params{
			NoveltyAlpha: cfg.Retention.NoveltyAlpha,
			Gamma:        cfg.Retention.Gamma,
			UtilityFloor: cfg.Retention.UtilityFloor,
		}, retriever, repo, log)
	},

	func(cfg *config.Config, log *zap.Logger) outbound.AIService {
		return openai.NewClient(openai.Config{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		}, log)
	},

	fx.Annotate(
		planner.NewService,
		fx.As(new(inbound.PlannerService)),
	),
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	kb *domainOntology.KnowledgeBase,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Convivio planning engine",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.Int("ingredients", kb.IngredientCount()),
				zap.Int("styles", kb.StyleCount()),
				zap.Int("techniques", kb.TechniqueCount()),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Convivio planning engine")
			_ = log.Sync()
			return nil
		},
	})
}
