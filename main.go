// go_transcript: YouTube transcript MCP server.
//
// Exposes two MCP tools: youtube_transcript, youtube_summarize.
// Runs as HTTP MCP server or stdio transport; optionally also serves a plain
// JSON REST API on API_PORT.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/restapi"
	"github.com/anatolykoptev/go_transcript/internal/transcriptserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
	apiPort = env.Str("API_PORT", "")
)

func main() {
	initEngine()
	defer engine.CloseCache()

	acq, err := sources.NewAcquirerFromConfig(engine.Cfg)
	if err != nil {
		slog.Error("transcript pipeline init failed", slog.Any("error", err))
		return
	}
	svc := transcriptserver.NewService(acq, engine.NewLLMSummarizer(engine.Cfg.LLMClient), engine.Cfg)

	slog.Info("starting go_transcript",
		slog.String("port", mcpPort),
		slog.String("api_port", apiPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_transcript",
		Version: version,
	}, nil)

	transcriptserver.RegisterTools(server, svc)
	slog.Info("tools registered", slog.Int("count", 2))

	if apiPort != "" {
		api := startREST(svc)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = api.Shutdown(ctx)
		}()
	}

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_transcript",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 300 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func startREST(svc *transcriptserver.Service) *http.Server {
	router := restapi.NewRouter(svc, restapi.Config{
		CORSOrigins:    env.List("CORS_ORIGINS", ""),
		RequestTimeout: env.Duration("API_REQUEST_TIMEOUT", 2*time.Minute),
	})
	srv := &http.Server{
		Addr:              ":" + apiPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}
	go func() {
		slog.Info("rest api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("rest api failed", slog.Any("error", err))
		}
	}()
	return srv
}

func initEngine() {
	c := engine.Config{
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 8192),
		MaxTranscriptChars:   env.Int("MAX_TRANSCRIPT_CHARS", 20000),
		InnertubeKey:         env.Str("YT_INNERTUBE_KEY", ""),
		SessionCookies:       env.Str("YT_COOKIES", ""),
		RateLimit:            env.Float("YT_RATE_LIMIT", 2),
		RateBurst:            env.Int("YT_RATE_BURST", 4),
		UseBrowserTransport:  env.Str("USE_BROWSER_TRANSPORT", "") == "true",
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	if c.UseBrowserTransport {
		var opts []stealth.ClientOption
		opts = append(opts, stealth.WithTimeout(15))

		if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
			pool, err := proxypool.NewWebshare(apiKey)
			if err != nil {
				slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
			} else {
				opts = append(opts, stealth.WithProxyPool(pool))
				slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
			}
		}

		bc, err := stealth.NewClient(opts...)
		if err != nil {
			slog.Error("stealth client init failed, using net/http", slog.Any("error", err))
		} else {
			c.BrowserClient = bc
			slog.Info("stealth browser client initialized")
		}
	}

	if c.LLMAPIKey != "" {
		c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
			llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(c.LLMMaxTokens),
			llm.WithTemperature(c.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: 90 * time.Second}),
		)
	} else {
		slog.Warn("LLM_API_KEY not set, youtube_summarize disabled")
	}

	engine.Init(c)

	engine.InitCache(context.Background(), engine.CacheConfig{
		RedisURL:        env.Str("REDIS_URL", ""),
		DatabaseURL:     env.Str("DATABASE_URL", ""),
		SQLitePath:      env.Str("CACHE_DB_PATH", ""),
		TTL:             env.Duration("CACHE_TTL", 6*time.Hour),
		MaxEntries:      c.CacheMaxEntries,
		CleanupInterval: c.CacheCleanupInterval,
	})
}
