package bootstrap

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/ioa2205/email-support-agent/adapter/in/worker"
)

// NewAgent builds the background dispatch loop.
func NewAgent(deps *Dependencies) *worker.Dispatcher {
	log := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "support-agent").
		Logger()
	if deps.Config.IsDevelopment() {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	return worker.NewDispatcher(
		deps.AccountRepo,
		deps.Gmail,
		deps.SupportService,
		&worker.Config{
			PollInterval:     deps.Config.PollInterval,
			IdlePollInterval: deps.Config.IdlePollInterval,
		},
		log,
	)
}
