package admincli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/cryptox"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

const generatedPasswordLength = 16

// CreateUserCommand inserts an activated account. It is the only way to get
// the first admin, since POST /users itself requires one.
func CreateUserCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-user",
		Usage: "Create an activated user with a password",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "login name",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "role",
				Aliases: []string{"r"},
				Usage:   "role name: admin or user",
				Value:   common.RoleUser,
			},
			&cli.BoolFlag{
				Name:  "generate",
				Usage: "generate a random password and print it instead of prompting",
			},
		},
		Action: runCreateUser,
	}
}

func runCreateUser(c *cli.Context) error {
	username := strings.TrimSpace(c.String("username"))
	if username == "" {
		return errors.New("username must not be empty")
	}
	cfg := loadConfig(c)

	password, err := obtainPassword(c)
	if err != nil {
		return err
	}

	db, err := openDB(c.Context, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	m := newManager()
	store := dbx.NewSQLStore(db, nil)

	var created *models.User
	err = store.WithTx(c.Context, func(ctx context.Context, tx dbx.DBTX) error {
		role, err := m.Roles(tx).GetByName(ctx, c.String("role"))
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("role %q does not exist", c.String("role"))
			}
			return err
		}

		hashed, err := cryptox.HashPassword(password, cfg.SecretKey)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		created, err = m.Users(tx).Create(ctx, &models.User{
			Username:       username,
			HashedPassword: hashed.Hash,
			Salt:           hashed.Salt,
			Activated:      true,
			RoleID:         role.ID,
		})
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("user %q already exists", username)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "created user %q with id %d\n", created.Username, created.ID)
	if c.Bool("generate") {
		fmt.Fprintf(c.App.Writer, "password: %s\n", password)
	}
	return nil
}

// obtainPassword prompts twice on the terminal, or generates one with --generate.
func obtainPassword(c *cli.Context) (string, error) {
	if c.Bool("generate") {
		return cryptox.GenerateRandomPassword(generatedPasswordLength)
	}

	first, err := promptPassword(c, "Password: ")
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", errors.New("password must not be empty")
	}
	second, err := promptPassword(c, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

func promptPassword(c *cli.Context, prompt string) (string, error) {
	fmt.Fprint(c.App.Writer, prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(c.App.Writer)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}
