package config

import (
	"time"

	"github.com/spf13/viper"
)

type Gateway struct {
	// Address the public REST API listens on
	ListenAddress string

	// HS256 secret used to verify caller tokens
	JWTSecret string

	// Transport-level pacing, requests per second
	RequestsPerSecond int

	// Websocket event stream write timeout
	WebsocketWriteTimeout time.Duration
}

func setGatewayDefaults() {
	viper.SetDefault("Gateway.ListenAddress", ":8080")
	viper.SetDefault("Gateway.JWTSecret", "")
	viper.SetDefault("Gateway.RequestsPerSecond", "100")
	viper.SetDefault("Gateway.WebsocketWriteTimeout", "5s")
}
