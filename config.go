package main

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI     string
	MongoDB      string
	PredictorURI string
	Port         string
}

func mustConfig() Config {
	_ = godotenv.Load()

	return Config{
		MongoURI:     getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getenv("MONGO_DB", "agrideal"),
		PredictorURI: getenv("PREDICTOR_URL", "http://127.0.0.1:5000"),
		Port:         getenv("PORT", "8080"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
