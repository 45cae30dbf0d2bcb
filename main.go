/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labtrack/cmd"
	"github.com/humaidq/labtrack/logging"
)

func main() {
	logger := logging.Logger(logging.SourceApp)

	app := &cli.Command{
		Name:  "labtrack",
		Usage: "Before and after lab result tracking",
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdMigrate,
			cmd.CmdRole,
			cmd.CmdSeed,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatal("labtrack failed", "error", err)
	}
}
