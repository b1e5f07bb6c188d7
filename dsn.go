package sqlvars

import (
	"fmt"
	"strconv"
	"strings"
)

// WireDSN renders the canonical DSN for cfg. The layout is a
// compatibility surface and is preserved byte for byte:
//
//	pgsql:host=<h>[;dbname=<d>][;port=<p>]
//	mysql:host=<h>[;dbname=<d>][;port=<p>]
//	sqlite:<path> | sqlite:memory:
func WireDSN(cfg Config) string {
	if cfg.Engine == SQLite {
		if cfg.Database == "" {
			return "sqlite:memory:"
		}
		return "sqlite:" + cfg.Database
	}

	var b strings.Builder
	b.WriteString(cfg.Engine.String())
	b.WriteString(":host=")
	b.WriteString(cfg.Host)
	if cfg.Database != "" {
		b.WriteString(";dbname=")
		b.WriteString(cfg.Database)
	}
	if cfg.Port > 0 {
		b.WriteString(";port=")
		b.WriteString(strconv.Itoa(cfg.Port))
	}
	return b.String()
}

// driverDSN translates cfg into the form the registered driver
// expects: key/value pairs for pgx, user:pass@tcp(host:port)/db for
// mysql, a file path (or :memory:) for sqlite3.
func driverDSN(cfg Config) (string, error) {
	switch cfg.Engine {
	case Postgres:
		if cfg.Host == "" {
			return "", fmt.Errorf("host is required")
		}
		var b strings.Builder
		b.WriteString("host=")
		b.WriteString(cfg.Host)
		b.WriteString(" port=")
		b.WriteString(strconv.Itoa(portOf(cfg)))
		if cfg.Database != "" {
			b.WriteString(" dbname=")
			b.WriteString(cfg.Database)
		}
		if cfg.Username != "" {
			b.WriteString(" user=")
			b.WriteString(cfg.Username)
		}
		if cfg.Password != "" {
			b.WriteString(" password=")
			b.WriteString(cfg.Password)
		}
		return b.String(), nil

	case MySQL:
		if cfg.Host == "" {
			return "", fmt.Errorf("host is required")
		}
		var b strings.Builder
		if cfg.Username != "" {
			b.WriteString(cfg.Username)
			if cfg.Password != "" {
				b.WriteByte(':')
				b.WriteString(cfg.Password)
			}
			b.WriteByte('@')
		}
		b.WriteString("tcp(")
		b.WriteString(cfg.Host)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(portOf(cfg)))
		b.WriteString(")/")
		b.WriteString(cfg.Database)
		return b.String(), nil

	case SQLite:
		if cfg.Database == "" {
			return ":memory:", nil
		}
		return cfg.Database, nil

	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownEngine, int(cfg.Engine))
	}
}

func portOf(cfg Config) int {
	if cfg.Port > 0 {
		return cfg.Port
	}
	return cfg.Engine.DefaultPort()
}
