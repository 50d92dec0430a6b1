package config

import "time"

type Sale struct {
	CommitTimeout time.Duration `env:"SALE_COMMIT_TIMEOUT" envDefault:"5s"`
	LookupTimeout time.Duration `env:"SALE_LOOKUP_TIMEOUT" envDefault:"2s"`
	MaxCartLines  int           `env:"SALE_MAX_CART_LINES" envDefault:"100"`
}
