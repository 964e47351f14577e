package main

import (
	"database/sql"

	"github.com/trezcool/goose"

	"github.com/trezcool/bunkguard/fs"
)

// gooseRunFunc runs a goose command against the embedded migrations.
var gooseRunFunc = func(command string, db *sql.DB, args ...string) error { // mockable
	return goose.RunFS(command, db, appfs.FS, "migrations", args...)
}

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQLEngine
	}
	return gooseRunFunc(args[0], cli.db, args[1:]...)
}
