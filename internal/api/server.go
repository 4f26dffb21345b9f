// internal/api/server.go
package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telehealth-agent/internal/common/validation"
	"telehealth-agent/internal/models"
	evaluateresponse "telehealth-agent/internal/workers/telehealth/evaluate-response"
	processturn "telehealth-agent/internal/workers/telehealth/process-turn"
	searchfaq "telehealth-agent/internal/workers/telehealth/search-faq"
)

const DefaultMaxBodyBytes = 1 << 20

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// FAQSearcher is satisfied by *searchfaq.Handler.
type FAQSearcher interface {
	Execute(ctx context.Context, input *searchfaq.Input) (*searchfaq.Output, error)
}

// TurnProcessor is satisfied by *processturn.Handler.
type TurnProcessor interface {
	Execute(ctx context.Context, input *processturn.Input) (*models.TelehealthResult, error)
}

// ResponseEvaluator is satisfied by *evaluateresponse.Handler.
type ResponseEvaluator interface {
	Execute(ctx context.Context, input *evaluateresponse.Input) (*evaluateresponse.Output, error)
}

type Config struct {
	ServiceName    string
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Server exposes the FAQ, telehealth and evaluator operations over HTTP.
type Server struct {
	config    Config
	faq       FAQSearcher
	turns     TurnProcessor
	evaluator ResponseEvaluator
	validator *validation.Validator
	logger    Logger
}

func NewServer(config Config, faq FAQSearcher, turns TurnProcessor, evaluator ResponseEvaluator, validator *validation.Validator, log Logger) *Server {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		config:    config,
		faq:       faq,
		turns:     turns,
		evaluator: evaluator,
		validator: validator,
		logger:    log,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		s.accessLog(),
		limitBodySize(s.config.MaxBodyBytes),
		cors.New(corsConfig(s.config.AllowedOrigins)),
	)
	s.RegisterRoutes(router)
	return router
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/", s.root)
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/faq", s.searchFAQ)
	r.POST("/sources", s.searchSources)
	r.POST("/niharika", s.searchCurated)
	r.POST("/ashai", s.processTurn)
	r.POST("/evaluator", s.evaluate)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", headerRequestID},
		ExposeHeaders: []string{headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
