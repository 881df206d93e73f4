package server

import (
	"errors"
	"fmt"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/matchmaking"
	"github.com/spf13/viper"
)

type Config struct {
	Port      string
	JwtSecret string
	KFactor   int

	Matchmaking matchmaking.Config

	UserRatingsTable   string
	ActiveDuelsTable   string
	DuelHistoryTable   string
	BehaviorTable      string
	RatingUpdatesTable string
}

func NewConfig() Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs/server")
	viper.AddConfigPath(".")

	defaults := matchmaking.DefaultConfig()
	viper.SetDefault("Server.Port", "8080")
	viper.SetDefault("Server.JwtSecret", "")
	viper.SetDefault("Rating.KFactor", 32)
	viper.SetDefault("Matchmaking.InitialRadius", defaults.InitialRadius)
	viper.SetDefault("Matchmaking.RadiusStep", defaults.RadiusStep)
	viper.SetDefault("Matchmaking.ExpandEvery", defaults.ExpandEvery.String())
	viper.SetDefault("Matchmaking.MaxWait", defaults.MaxWait.String())
	viper.SetDefault("Matchmaking.SweepInterval", defaults.SweepInterval.String())
	viper.SetDefault("Matchmaking.LockTimeout", defaults.LockTimeout.String())
	viper.SetDefault("Matchmaking.RecentOpponentWindow", defaults.RecentOpponentWindow)
	viper.SetDefault("Matchmaking.FairPlayWindow", defaults.FairPlayWindow)
	viper.SetDefault("Tables.UserRatings", "UserRatings")
	viper.SetDefault("Tables.ActiveDuels", "ActiveDuels")
	viper.SetDefault("Tables.DuelHistory", "DuelHistory")
	viper.SetDefault("Tables.Behavior", "DuelBehavior")
	viper.SetDefault("Tables.RatingUpdates", "RatingUpdates")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %s", err))
		}
	}
	viper.AutomaticEnv()

	var config Config
	config.Port = viper.GetString("Server.Port")
	config.JwtSecret = viper.GetString("Server.JwtSecret")
	config.KFactor = viper.GetInt("Rating.KFactor")

	config.Matchmaking = matchmaking.Config{
		InitialRadius:        viper.GetInt("Matchmaking.InitialRadius"),
		RadiusStep:           viper.GetInt("Matchmaking.RadiusStep"),
		ExpandEvery:          viper.GetDuration("Matchmaking.ExpandEvery"),
		MaxWait:              viper.GetDuration("Matchmaking.MaxWait"),
		SweepInterval:        viper.GetDuration("Matchmaking.SweepInterval"),
		LockTimeout:          viper.GetDuration("Matchmaking.LockTimeout"),
		RecentOpponentWindow: viper.GetInt("Matchmaking.RecentOpponentWindow"),
		FairPlayWindow:       viper.GetInt("Matchmaking.FairPlayWindow"),
	}

	config.UserRatingsTable = viper.GetString("Tables.UserRatings")
	config.ActiveDuelsTable = viper.GetString("Tables.ActiveDuels")
	config.DuelHistoryTable = viper.GetString("Tables.DuelHistory")
	config.BehaviorTable = viper.GetString("Tables.Behavior")
	config.RatingUpdatesTable = viper.GetString("Tables.RatingUpdates")

	return config
}
