package config

type HTTP struct {
	Port    uint32 `env:"HTTP_PORT" envDefault:"8000"`
	Swagger bool   `env:"HTTP_SWAGGER" envDefault:"true"`

	// Sale endpoints are limited per client address.
	SaleRateLimit float64 `env:"HTTP_SALE_RATE_LIMIT" envDefault:"20"`
	SaleRateBurst int     `env:"HTTP_SALE_RATE_BURST" envDefault:"40"`
}
