package env

import (
	"github.com/joho/godotenv"

	"routewatch/pkg/log"
)

// LoadEnv reads .env files into the process environment. Without arguments it
// reads .env from the working directory. Variables already set are kept.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Info("No .env file found, assuming environment variables are set directly.")
	}
}
