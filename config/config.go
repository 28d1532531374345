// Package config owns the maintenance-control configuration document: the
// database connection parameters, the query the downstream application runs,
// and the mapping from the application's logical field names to the physical
// columns of the source table.
//
// The document is created at most once per deployment. The bootstrap process
// is the sole writer; everything downstream is a read-only consumer.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// DefaultPath is where the entrypoint materializes the document when it
	// is missing.
	DefaultPath = "config/database_config.json"

	defaultHost     = "database"
	defaultPort     = 3306
	defaultUser     = "mcontrol"
	defaultPassword = "mcontrol"
	defaultDatabase = "annadb"
)

// DefaultMainQuery selects the logical result set from the rig log table.
const DefaultMainQuery = "SELECT rig_name, log_result, slot_number, tlog_upload_time, " +
	"last_maintenance_date, days_until_maintenance FROM rig_logs ORDER BY tlog_upload_time DESC"

// Document is the full configuration tree. All three subsections are present
// in every document this package writes, even when some mapped columns do not
// exist in the actual schema.
type Document struct {
	Connection    Connection        `json:"connection"`
	Query         Query             `json:"query"`
	ColumnMapping map[string]string `json:"column_mapping"`
}

// Connection holds the database connection parameters. For sqlite, Host is
// the database file path.
type Connection struct {
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// Query holds the SQL executed against the data source. The custom query is
// used only when it is both enabled and non-empty.
type Query struct {
	MainQuery          string `json:"main_query"`
	CustomQuery        string `json:"custom_query"`
	CustomQueryEnabled bool   `json:"custom_query_enabled"`
}

// Active returns the query the application should run.
func (q Query) Active() string {
	if q.CustomQueryEnabled && q.CustomQuery != "" {
		return q.CustomQuery
	}
	return q.MainQuery
}

// Default returns the fixed default document.
//
// lastMaintenance and maintenanceDue may not exist in older rig_logs
// deployments; the mismatch is accepted downstream, not validated here.
func Default() *Document {
	return &Document{
		Connection: Connection{
			Type:     "mysql",
			Host:     defaultHost,
			Port:     defaultPort,
			User:     defaultUser,
			Password: defaultPassword,
			Database: defaultDatabase,
		},
		Query: Query{
			MainQuery:          DefaultMainQuery,
			CustomQuery:        "",
			CustomQueryEnabled: false,
		},
		ColumnMapping: map[string]string{
			"stationName":     "rig_name",
			"result":          "log_result",
			"slot":            "slot_number",
			"testDate":        "tlog_upload_time",
			"lastMaintenance": "last_maintenance_date",
			"maintenanceDue":  "days_until_maintenance",
		},
	}
}

// Exists reports whether a configuration document is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDefault creates the default document at path unless a file is already
// there. An existing file is never touched. It reports whether a new document
// was written.
func EnsureDefault(path string) (bool, error) {
	if Exists(path) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal default config: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// Load reads the document at path and applies environment overrides.
//
// Hand-annotated files from older deployments carry # comments inside the
// JSON; those are stripped before decoding. Files written by this package
// are strict JSON.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(stripComments(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(&doc)

	if doc.Connection.Type == "" {
		doc.Connection.Type = "mysql"
	}
	return &doc, nil
}

// applyEnvOverrides lets deployment environments override the persisted
// connection parameters without rewriting the document.
func applyEnvOverrides(doc *Document) {
	v := viper.New()
	v.AutomaticEnv()

	if s := v.GetString("DB_TYPE"); s != "" {
		doc.Connection.Type = s
	}
	if s := v.GetString("DB_HOST"); s != "" {
		doc.Connection.Host = s
	}
	if p := v.GetInt("DB_PORT"); p != 0 {
		doc.Connection.Port = p
	}
	if s := v.GetString("DB_USER"); s != "" {
		doc.Connection.User = s
	}
	if s := v.GetString("DB_PASSWORD"); s != "" {
		doc.Connection.Password = s
	}
	if s := v.GetString("DB_NAME"); s != "" {
		doc.Connection.Database = s
	}
}

// Validate checks that all three subsections carry their required keys.
func (d *Document) Validate() error {
	if d.Connection.Type == "" {
		return fmt.Errorf("config: connection.type is required")
	}
	if d.Connection.Host == "" {
		return fmt.Errorf("config: connection.host is required")
	}
	if d.Connection.Type != "sqlite" {
		if d.Connection.Database == "" {
			return fmt.Errorf("config: connection.database is required")
		}
		if d.Connection.User == "" {
			return fmt.Errorf("config: connection.user is required")
		}
		if d.Connection.Port <= 0 {
			return fmt.Errorf("config: connection.port must be positive, got %d", d.Connection.Port)
		}
	}
	if d.Query.Active() == "" {
		return fmt.Errorf("config: query.main_query is required")
	}
	if len(d.ColumnMapping) == 0 {
		return fmt.Errorf("config: column_mapping must not be empty")
	}
	return nil
}

// stripComments removes # comments that are outside string literals so that
// annotated legacy documents still decode as JSON.
func stripComments(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			out = append(out, c)
		case '#':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		default:
			out = append(out, c)
		}
	}
	return out
}
