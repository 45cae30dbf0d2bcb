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

var CmdRole = &cli.Command{
	Name:  "role",
	Usage: "Manage the administrator role of identities",
	Flags: []cli.Flag{databaseURLFlag},
	Commands: []*cli.Command{
		{
			Name:      "grant",
			Usage:     "Grant the admin role to an identity",
			ArgsUsage: "<email>",
			Action:    roleGrant,
		},
		{
			Name:      "revoke",
			Usage:     "Remove the admin role from an identity",
			ArgsUsage: "<email>",
			Action:    roleRevoke,
		},
		{
			Name:   "list",
			Usage:  "List identities with their role and live sessions",
			Action: roleList,
		},
	},
}

func withDatabase(ctx context.Context, cmd *cli.Command, fn func(context.Context) error) error {
	databaseURL, err := requireDatabaseURL(cmd)
	if err != nil {
		return err
	}

	if err := db.Init(ctx, databaseURL); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.SyncSchema(ctx); err != nil {
		return fmt.Errorf("failed to sync schema: %w", err)
	}

	return fn(ctx)
}

func roleGrant(ctx context.Context, cmd *cli.Command) error {
	role := db.RoleAdmin
	return setRole(ctx, cmd, &role)
}

func roleRevoke(ctx context.Context, cmd *cli.Command) error {
	return setRole(ctx, cmd, nil)
}

// setRole changes the role and ends the identity's sessions so the next
// request signs in with the new role.
func setRole(ctx context.Context, cmd *cli.Command, role *string) error {
	email := cmd.Args().First()
	if email == "" {
		return errEmailArgumentRequired
	}

	return withDatabase(ctx, cmd, func(ctx context.Context) error {
		identity, err := db.SetIdentityRole(ctx, email, role)
		if err != nil {
			return err
		}

		store := db.NewPostgresSessionStore(db.PostgresSessionConfig{})
		ended, err := store.DestroyIdentitySessions(ctx, identity.ID.String())
		if err != nil {
			return fmt.Errorf("role updated but sessions were not ended: %w", err)
		}

		appLogger.Info("Role updated", "email", identity.Email, "role", roleLabel(identity.Role), "sessions_ended", ended)
		fmt.Printf("%s: role=%s, %d session(s) ended\n", identity.Email, roleLabel(identity.Role), ended)
		return nil
	})
}

func roleList(ctx context.Context, cmd *cli.Command) error {
	return withDatabase(ctx, cmd, func(ctx context.Context) error {
		identities, err := db.ListIdentities(ctx)
		if err != nil {
			return err
		}

		store := db.NewPostgresSessionStore(db.PostgresSessionConfig{})
		for _, identity := range identities {
			sessions, err := store.ListIdentitySessions(ctx, identity.ID.String())
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s\t%d session(s)\n", identity.Email, roleLabel(identity.Role), len(sessions))
		}
		return nil
	})
}

func roleLabel(role *string) string {
	if role == nil || *role == "" {
		return "user"
	}
	return *role
}
