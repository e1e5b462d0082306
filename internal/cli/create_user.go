package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/users"
)

// CreateUserCommand registers an account from the command line.
type CreateUserCommand struct {
	DatabasePath  string
	Username      string
	Email         string
	PasswordStdin bool

	Auth config.Auth
	In   io.Reader
	Out  io.Writer
}

// NewCreateUserCommand creates a new CreateUserCommand
func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{
		Auth: config.NewConfig().Auth,
		In:   os.Stdin,
		Out:  os.Stdout,
	}
}

// ParseFlags parses command line flags
func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.Username, "username", "", "Display name (required)")
	fs.StringVar(&cmd.Email, "email", "", "Login email (required)")
	fs.BoolVar(&cmd.PasswordStdin, "password-stdin", false, "Read the password from the first line of stdin")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username NAME -email EMAIL [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Register a user. The password is prompted for without echo.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Email == "" {
		fs.Usage()
		return errors.New("-username and -email are required")
	}
	return nil
}

// Run executes the create-user command
func (cmd *CreateUserCommand) Run() error {
	password, err := cmd.readPassword()
	if err != nil {
		return err
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	service := auth.NewService(users.NewRepository(db.DB), cmd.Auth)
	user, err := service.Register(context.Background(), cmd.Username, cmd.Email, password)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return fmt.Errorf("email %s is already registered", cmd.Email)
		}
		return err
	}

	fmt.Fprintf(cmd.Out, "Created user %d (%s <%s>)\n", user.ID, user.Username, user.Email)
	return nil
}

func (cmd *CreateUserCommand) readPassword() (string, error) {
	if f, ok := cmd.In.(*os.File); ok && !cmd.PasswordStdin && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.Out, "Password: ")
		first, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Fprint(cmd.Out, "Repeat password: ")
		second, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		if string(first) != string(second) {
			return "", errors.New("passwords do not match")
		}
		return string(first), nil
	}

	line, err := bufio.NewReader(cmd.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password")
	}
	return password, nil
}
