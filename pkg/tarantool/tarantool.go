// Package tarantool opens the connection shared by the invitation store and
// the vote token cache.
//
// The instance is expected to define two spaces:
//
//	invitations  {email, festival_slug, id, fields, created_at}
//	             primary index parts {email, festival_slug}
//	vote_tokens  {token, subject, expires_at_ms}
//	             primary index parts {token}
//	             expires index parts {expires_at_ms}, non-unique tree
//
// Expired tokens are never returned. The server removes them in batches
// through the expires index; an instance running the expirationd module on
// vote_tokens can do the same job instead.
package tarantool

import (
	"fmt"
	"time"

	"github.com/tarantool/go-tarantool"
)

type Config struct {
	Host     string        `yaml:"TARANTOOL_HOST" env:"TARANTOOL_HOST" env-default:"localhost"`
	Port     string        `yaml:"TARANTOOL_PORT" env:"TARANTOOL_PORT" env-default:"3301"`
	Username string        `yaml:"TARANTOOL_USER" env:"TARANTOOL_USER" env-default:"admin"`
	Password string        `yaml:"TARANTOOL_PASSWORD" env:"TARANTOOL_PASSWORD" env-default:"secret"`
	Timeout  time.Duration `yaml:"TARANTOOL_TIMEOUT" env:"TARANTOOL_TIMEOUT" env-default:"3s"`
}

func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func New(config Config) (*tarantool.Connection, error) {
	conn, err := tarantool.Connect(config.Addr(), tarantool.Opts{
		User:    config.Username,
		Pass:    config.Password,
		Timeout: config.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("tarantool: connect to %s: %w", config.Addr(), err)
	}
	return conn, nil
}
