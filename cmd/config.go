package main

import "time"

type Config struct {
	BufferSize        int           `env:"BUFFER_SIZE,default=1024"`
	SessionBufferSize int           `env:"SESSION_BUFFER_SIZE,default=256"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=3001"`
	TokenSecret       string        `env:"TOKEN_SECRET,required=true"`
	TokenTTL          time.Duration `env:"TOKEN_TTL,default=24h"`
	StatsInterval     time.Duration `env:"STATS_INTERVAL,default=30s"`
	LatencyThreshold  time.Duration `env:"LATENCY_THRESHOLD,default=500ms"`
	CensoredWords     []string      `env:"CENSORED_WORDS"`
	CensorMask        string        `env:"CENSOR_MASK,default=*"`
}
