// Command textcmd-cli drives the command engine from a terminal, without a
// Discord connection. Settings and history use the same storage file as the
// bot.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := root.Execute(); err != nil {
		log.Error().Err(err).Send()
		os.Exit(1)
	}
}
