package main

import (
	"context"

	"github.com/fatih/color"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
)

func (cli *commandLine) createUser(ctx context.Context, email, name, role, pwd string) error {
	user, err := cli.users.CreateUser(ctx, models.CreateUserRequest{
		Email:    email,
		FullName: name,
		Role:     models.UserRole(role),
		Password: pwd,
	})
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cli.out, "created %s user %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}
