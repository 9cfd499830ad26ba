// Package config loads server configuration from the environment.
package config

import (
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	// HTTP
	Port int `envconfig:"PORT" default:"8080"`

	// Storage. Use ":memory:" for an in-memory database.
	DBPath string `envconfig:"DB_PATH" default:"reservations.db"`

	// Notifications. Empty AMQP URL falls back to the console notifier.
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"notifications"`

	// Substitution protocol
	ScoringProfilePath string `envconfig:"SCORING_PROFILE"`
	SweepIntervalSec   int    `envconfig:"OFFER_SWEEP_INTERVAL_SEC" default:"30"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
