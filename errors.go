package sqlvars

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingVar indicates a placeholder with neither a supplied
	// value nor a template default.
	ErrMissingVar = errors.New("sqlvars: missing query-var value")

	// ErrInvalidVarValue indicates a supplied value outside the
	// allowed value grammar.
	ErrInvalidVarValue = errors.New("sqlvars: invalid query-var value")

	// ErrUnknownEngine indicates an engine identifier outside the
	// supported set.
	ErrUnknownEngine = errors.New("sqlvars: unknown engine")

	// ErrDefaultSet is returned by SetDefault when a default
	// connection has already been installed.
	ErrDefaultSet = errors.New("sqlvars: default connection already set")

	// ErrNoDefault is returned by Default when no default connection
	// has been installed.
	ErrNoDefault = errors.New("sqlvars: no default connection set")
)

// Settings is the non-secret subset of a connection's configuration,
// attached to errors for diagnostics. Credentials are reduced to
// presence flags and never appear in messages.
type Settings struct {
	Engine      string
	Host        string
	Database    string
	Port        int
	HasUsername bool
	HasPassword bool
}

func settingsOf(cfg Config) Settings {
	port := cfg.Port
	if port == 0 {
		port = cfg.Engine.DefaultPort()
	}
	return Settings{
		Engine:      cfg.Engine.String(),
		Host:        cfg.Host,
		Database:    cfg.Database,
		Port:        port,
		HasUsername: cfg.Username != "",
		HasPassword: cfg.Password != "",
	}
}

// VarError reports a Query-Vars resolution failure for one
// placeholder. It unwraps to ErrMissingVar or ErrInvalidVarValue, so
// errors.Is works against the sentinels.
type VarError struct {
	Name     string
	Template string
	Settings Settings
	reason   error
}

func (e *VarError) Error() string {
	return fmt.Sprintf("%v: {$%s} in %q", e.reason, e.Name, e.Template)
}

func (e *VarError) Unwrap() error { return e.reason }

// ConnError reports a failure while constructing a connection.
// Charset application is part of construction and fails the same way.
type ConnError struct {
	Settings Settings
	Err      error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("sqlvars: connect %s host=%s dbname=%s: %v",
		e.Settings.Engine, e.Settings.Host, e.Settings.Database, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// QueryError wraps a driver prepare/execute failure together with the
// offending SQL.
type QueryError struct {
	SQL      string
	Settings Settings
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("sqlvars: query on %s dbname=%s: %v (sql: %s)",
		e.Settings.Engine, e.Settings.Database, e.Err, e.SQL)
}

func (e *QueryError) Unwrap() error { return e.Err }
