package provision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementsWithDefaults(t *testing.T) {
	p := New("root:secret@tcp(127.0.0.1:3306)/mysql")
	p.AppPassword = "apppass"

	stmts := p.Statements()
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE USER IF NOT EXISTS 'mcontrol'@'%' IDENTIFIED BY 'apppass'", stmts[0])
	assert.Equal(t, "GRANT ALL PRIVILEGES ON `annadb`.* TO 'mcontrol'@'%'", stmts[1])
	assert.Equal(t, "FLUSH PRIVILEGES", stmts[2])
}

func TestStatementsWithoutCreateUser(t *testing.T) {
	p := New("root:secret@tcp(127.0.0.1:3306)/mysql")
	p.CreateUser = false

	stmts := p.Statements()
	require.Len(t, stmts, 2)
	assert.Equal(t, "GRANT ALL PRIVILEGES ON `annadb`.* TO 'mcontrol'@'%'", stmts[0])
	assert.Equal(t, "FLUSH PRIVILEGES", stmts[1])
}

func TestStatementsSubnetPattern(t *testing.T) {
	p := New("root:secret@tcp(127.0.0.1:3306)/mysql")
	p.CreateUser = false
	p.HostPattern = SubnetHostPattern

	stmts := p.Statements()
	assert.Equal(t, "GRANT ALL PRIVILEGES ON `annadb`.* TO 'mcontrol'@'192.168.1.%'", stmts[0])
}

func TestStatementsEscapeQuotes(t *testing.T) {
	p := New("root:secret@tcp(127.0.0.1:3306)/mysql")
	p.AppPassword = `it's\here`

	stmts := p.Statements()
	assert.Equal(t, `CREATE USER IF NOT EXISTS 'mcontrol'@'%' IDENTIFIED BY 'it\'s\\here'`, stmts[0])
}

func TestStatementsEscapeIdentifierBackticks(t *testing.T) {
	p := New("root:secret@tcp(127.0.0.1:3306)/mysql")
	p.CreateUser = false
	p.Database = "anna`db"

	stmts := p.Statements()
	assert.Equal(t, "GRANT ALL PRIVILEGES ON `anna``db`.* TO 'mcontrol'@'%'", stmts[0])
}

func TestApplyRejectsEmptyTargets(t *testing.T) {
	p := New("root:secret@tcp(127.0.0.1:3306)/mysql")
	p.AppUser = ""
	assert.Error(t, p.Apply(context.Background()))

	p = New("root:secret@tcp(127.0.0.1:3306)/mysql")
	p.Database = ""
	assert.Error(t, p.Apply(context.Background()))
}
