package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

var (
	readPasswordFunc = term.ReadPassword

	errHelp = errors.New("help provided")
)

type userCreator interface {
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
}

type ratedLister interface {
	Rated(ctx context.Context, period string, status rating.Status) ([]models.RatedTeacher, error)
}

type commandLine struct {
	db      *sql.DB
	users   userCreator
	ratings ratedLister
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                      - run a goose command (up, down, status, redo, version...)")
	fmt.Fprintln(cli.out, "  createuser -email EMAIL -name NAME -role R  - create a login; the password is prompted")
	fmt.Fprintln(cli.out, "  summary -period YYYY-YYYY [-status S]       - print rated teachers for a period")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "createuser":
		fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		email := fs.String("email", "", "Login email.")
		name := fs.String("name", "", "Full name.")
		role := fs.String("role", string(models.RoleAdmin), "One of SUPERADMIN, ADMIN, RATER, TEACHER.")
		if err := fs.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *email == "" || *name == "" {
			fs.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			fs.Usage()
			return errHelp
		}
		return cli.createUser(ctx, *email, *name, strings.ToUpper(*role), string(pwd))

	case "summary":
		fs := flag.NewFlagSet("summary", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		period := fs.String("period", "", "Rating period, e.g. 2024-2025.")
		status := fs.String("status", "", "Optional status filter (draft, submitted, approved).")
		if err := fs.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *period == "" {
			fs.Usage()
			return errHelp
		}
		return cli.summary(ctx, *period, rating.Status(*status))

	default:
		cli.printUsage()
		return errHelp
	}
}
