package main

import (
	"context"

	"github.com/noah-isme/sma-ipcrf-api/pkg/database"
)

var migrateFunc = database.Migrate

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	return migrateFunc(ctx, cli.db, args[0], args[1:]...)
}
