// Package provision grants the maintenance-control application user its
// database privileges. It is a one-shot step run with administrative
// credentials during database initialization, not a running component.
package provision

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

const (
	DefaultAppUser     = "mcontrol"
	DefaultDatabase    = "annadb"
	DefaultHostPattern = "%"

	// SubnetHostPattern narrows the grant to the station rack subnet instead
	// of any host. Optional hardening, not applied by default.
	SubnetHostPattern = "192.168.1.%"
)

// A Provisioner applies the privilege grant for one application user.
type Provisioner struct {
	// AdminDSN is a go-sql-driver DSN with grant authority, usually pointing
	// at the mysql system schema.
	AdminDSN string

	AppUser     string
	AppPassword string
	Database    string
	HostPattern string

	// CreateUser ensures the user exists before granting. The grant itself
	// fails with the engine's error if the user is missing and this is off.
	CreateUser bool
}

// New returns a Provisioner with the fixed application defaults.
func New(adminDSN string) *Provisioner {
	return &Provisioner{
		AdminDSN:    adminDSN,
		AppUser:     DefaultAppUser,
		Database:    DefaultDatabase,
		HostPattern: DefaultHostPattern,
		CreateUser:  true,
	}
}

// Statements returns the SQL to execute, in order. The trailing FLUSH
// PRIVILEGES forces the privilege cache to reload so the grant takes effect
// without a server restart.
func (p *Provisioner) Statements() []string {
	user := fmt.Sprintf("'%s'@'%s'", escape(p.AppUser), escape(p.HostPattern))

	var stmts []string
	if p.CreateUser {
		stmts = append(stmts,
			fmt.Sprintf("CREATE USER IF NOT EXISTS %s IDENTIFIED BY '%s'", user, escape(p.AppPassword)))
	}
	stmts = append(stmts,
		fmt.Sprintf("GRANT ALL PRIVILEGES ON `%s`.* TO %s", escapeIdent(p.Database), user),
		"FLUSH PRIVILEGES",
	)
	return stmts
}

// Apply connects with the admin credentials and executes the grant. Engine
// errors (missing authority, unknown user or database) surface unmodified;
// nothing is retried.
func (p *Provisioner) Apply(ctx context.Context) error {
	if p.AppUser == "" {
		return fmt.Errorf("provision: app user must not be empty")
	}
	if p.Database == "" {
		return fmt.Errorf("provision: database must not be empty")
	}
	if p.HostPattern == "" {
		p.HostPattern = DefaultHostPattern
	}

	conn, err := sql.Open("mysql", p.AdminDSN)
	if err != nil {
		return fmt.Errorf("provision: failed to open admin connection: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("warning: failed to close admin connection: %v", err)
		}
	}()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("provision: cannot reach database with admin credentials: %w", err)
	}

	for _, stmt := range p.Statements() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("provision: %s: %w", stmtVerb(stmt), err)
		}
	}
	return nil
}

func stmtVerb(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return "statement"
	}
	return strings.ToLower(fields[0])
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// escapeIdent doubles backticks so the value is safe inside a
// backtick-quoted identifier.
func escapeIdent(s string) string {
	return strings.ReplaceAll(s, "`", "``")
}
