// Package database opens the MySQL pool and creates the schema.
package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Params are the connection settings read from DB_* variables.
type Params struct {
	User, Pass, Host, Port, Name string
}

// DSN renders p in the driver's format.  Times are parsed as UTC
// time.Time values.
func (p Params) DSN() string {
	c := mysql.NewConfig()
	c.User = p.User
	c.Passwd = p.Pass
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(p.Host, p.Port)
	c.DBName = p.Name
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Open connects to MySQL and verifies the connection within 5s.
func Open(ctx context.Context, p Params) (*sql.DB, error) {
	db, err := sql.Open("mysql", p.DSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
