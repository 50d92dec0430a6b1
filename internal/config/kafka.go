package config

type Kafka struct {
	Addresses []string `env:"KAFKA_ADDRESSES" envSeparator:","`
	Group     string   `env:"KAFKA_GROUP" envDefault:"inventory-sale"`
}

// Enabled reports whether brokers are configured.
func (k Kafka) Enabled() bool {
	return len(k.Addresses) > 0
}
