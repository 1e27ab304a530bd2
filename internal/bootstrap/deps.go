// Package bootstrap wires the application together.
package bootstrap

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ioa2205/email-support-agent/adapter/out/persistence"
	"github.com/ioa2205/email-support-agent/adapter/out/provider"
	"github.com/ioa2205/email-support-agent/config"
	"github.com/ioa2205/email-support-agent/core/agent/llm"
	"github.com/ioa2205/email-support-agent/core/agent/rag"
	"github.com/ioa2205/email-support-agent/core/port/out"
	"github.com/ioa2205/email-support-agent/core/service/auth"
	"github.com/ioa2205/email-support-agent/core/service/support"
	"github.com/ioa2205/email-support-agent/infra/database"
	"github.com/ioa2205/email-support-agent/pkg/cache"
	"github.com/ioa2205/email-support-agent/pkg/crypto"
	"github.com/ioa2205/email-support-agent/pkg/logger"
)

// Dependencies holds every wired component.
type Dependencies struct {
	Config *config.Config
	DB     *pgxpool.Pool
	SQLDB  *sqlx.DB
	Redis  *redis.Client

	Encryptor *crypto.Encryptor

	AccountRepo out.AccountRepository
	OrderRepo   out.OrderRepository
	TriageRepo  out.TriageRepository

	Gmail     *provider.GmailAdapter
	LLM       *llm.Client
	Retriever out.KnowledgeRetriever

	SupportService *support.Service
	OAuthService   *auth.OAuthService
}

// NewDependencies builds the full dependency graph. The returned cleanup
// closes every connection in reverse order.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	sqlDB, err := database.NewSQLX(cfg.DatabaseURL)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	// Redis is optional: without it answers are simply not cached.
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed, answer cache disabled: %v", err)
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
		}
	}

	encryptor, err := crypto.NewEncryptor([]byte(cfg.EncryptionKey))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Encryptor = encryptor

	deps.AccountRepo = persistence.NewAccountAdapter(sqlDB, encryptor)
	deps.OrderRepo = persistence.NewOrderAdapter(sqlDB)
	deps.TriageRepo = persistence.NewTriageAdapter(sqlDB)

	deps.Gmail = provider.NewGmailAdapter(&provider.GmailConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})

	deps.LLM = llm.NewClientWithConfig(llm.ClientConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	})

	retriever, err := buildRetriever(cfg, deps.LLM, deps.Redis)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Retriever = retriever

	deps.SupportService = support.NewService(deps.LLM, deps.Retriever, deps.OrderRepo, deps.TriageRepo, nil)
	deps.OAuthService = auth.NewOAuthService(deps.Gmail, deps.AccountRepo)

	return deps, cleanup, nil
}

// buildRetriever loads the FAQ, embeds it and layers the Redis answer
// cache on top when Redis is available.
func buildRetriever(cfg *config.Config, client *llm.Client, redisClient *redis.Client) (out.KnowledgeRetriever, error) {
	docs, err := rag.LoadFAQ(cfg.KnowledgeBasePath)
	if err != nil {
		return nil, err
	}

	index, err := rag.BuildIndex(context.Background(), client, docs)
	if err != nil {
		return nil, err
	}
	logger.Info("knowledge base indexed: %d documents", index.Len())

	retriever := rag.NewRetriever(index, client, cfg.AnswerMinConfidence)
	if redisClient == nil {
		return retriever, nil
	}
	return rag.NewCachedRetriever(retriever, cache.NewRedisCache(redisClient), cfg.AnswerCacheTTL), nil
}
