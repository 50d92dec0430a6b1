package config

import (
	"fmt"
	"strings"
)

type Store struct {
	Driver StoreDriver `env:"STORE_DRIVER" envDefault:"POSTGRES"`
}

// StoreDriver selects the storage backend.
type StoreDriver uint8

const (
	StoreDriverPostgres StoreDriver = iota
	StoreDriverMemory
)

func (d StoreDriver) String() string {
	return []string{"POSTGRES", "MEMORY"}[d]
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *StoreDriver) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "POSTGRES":
		*d = StoreDriverPostgres
	case "MEMORY":
		*d = StoreDriverMemory
	default:
		return fmt.Errorf("unknown store driver: %s", text)
	}
	return nil
}

func (d StoreDriver) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
