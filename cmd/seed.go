/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labtrack/db"
)

var CmdSeed = &cli.Command{
	Name:  "seed",
	Usage: "Insert the default testing item catalog",
	Flags: []cli.Flag{
		databaseURLFlag,
		&cli.BoolFlag{
			Name:  "replace",
			Usage: "delete existing testing items (and their results) first",
		},
	},
	Action: seed,
}

func seed(ctx context.Context, cmd *cli.Command) error {
	return withDatabase(ctx, cmd, func(ctx context.Context) error {
		inserted, err := db.SeedTestingItems(ctx, cmd.Bool("replace"))
		if err != nil {
			return err
		}

		appLogger.Info("Seeded testing items", "inserted", inserted, "replace", cmd.Bool("replace"))
		fmt.Printf("Inserted %d testing item(s)\n", inserted)
		return nil
	})
}
