package server

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/aws/storage"
	"github.com/MatinDeevv/ByteDuel-sub000/internal/matchmaking"
	"github.com/MatinDeevv/ByteDuel-sub000/internal/metrics"
	"github.com/MatinDeevv/ByteDuel-sub000/pkg/logging"
)

type server struct {
	address  string
	upgrader websocket.Upgrader

	config        Config
	service       *matchmaking.Service
	storageClient *storage.Client
}

func NewServer() *server {
	cfg := NewConfig()
	awsCfg, _ := awsconfig.LoadDefaultConfig(context.TODO())
	storageClient := storage.NewClient(
		dynamodb.NewFromConfig(awsCfg),
		storage.Config{
			UserRatingsTableName:   aws.String(cfg.UserRatingsTable),
			ActiveDuelsTableName:   aws.String(cfg.ActiveDuelsTable),
			DuelHistoryTableName:   aws.String(cfg.DuelHistoryTable),
			BehaviorTableName:      aws.String(cfg.BehaviorTable),
			RatingUpdatesTableName: aws.String(cfg.RatingUpdatesTable),
		},
	)
	srv := &server{
		address: "0.0.0.0:" + cfg.Port,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		config:        cfg,
		service:       matchmaking.NewService(storageClient, storageClient, matchmaking.SystemClock(), cfg.Matchmaking),
		storageClient: storageClient,
	}
	return srv
}

// Start method    starts the matchmaking server
func (s *server) Start() error {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/matchmaking", func(r chi.Router) {
		r.Post("/queue", s.handleJoinQueue)
		r.Delete("/queue", s.handleLeaveQueue)
		r.Get("/queue", s.handleQueueStatus)
		r.Get("/stats", s.handleQueueStats)
		r.Get("/ws", s.handleQueueSocket)
	})

	r.Post("/duels/{duelId}/result", s.handleDuelResult)

	r.Route("/admin/matchmaking", func(r chi.Router) {
		r.Post("/process", s.handleProcessQueue)
		r.Delete("/{userId}", s.handleForceRemove)
	})

	logging.Info("matchmaking server started", zap.String("port", s.config.Port))
	return http.ListenAndServe(s.address, r)
}

// Stop halts the background sweep schedulers.
func (s *server) Stop() {
	s.service.Stop()
}
