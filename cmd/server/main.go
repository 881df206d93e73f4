package main

import (
	"github.com/MatinDeevv/ByteDuel-sub000/internal/app/server"
	"github.com/MatinDeevv/ByteDuel-sub000/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	logging.Fatal("Matchmaking server exited: ", zap.Error(
		server.NewServer().Start(),
	))
}
