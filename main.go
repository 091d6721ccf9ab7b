package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"bookclub/club"
	"bookclub/config"
	"bookclub/identity"
	"bookclub/logging"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath  string
	Token   string
	Format  string // "json" | "text"
	EnvFile string
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// session is the per-invocation state built before a subcommand runs.
type session struct {
	opts   *RootOptions
	cfg    *config.Config
	log    *logrus.Entry
	mgr    *club.Manager
	caller int64
	out    printer
}

// authenticated returns the caller id or a forbidden error for anonymous
// invocations.
func (s *session) authenticated() (int64, error) {
	if s.caller == club.Anonymous {
		return 0, &ExitError{Code: ExitForbidden, Err: errors.New("this command requires a token; run `bookclub user login` and pass --token")}
	}
	return s.caller, nil
}

// close releases the database opened by open.
func (s *session) close() error {
	if s.mgr == nil {
		return nil
	}
	err := s.mgr.Close()
	s.mgr = nil
	return err
}

// NewRootCommand creates the root command for the bookclub CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&session{})
}

func newRootCommand(s *session) *cobra.Command {
	opts := &RootOptions{}
	s.opts = opts

	cmd := &cobra.Command{
		Use:           "bookclub",
		Short:         "Book club manager",
		Long:          "Create book clubs, manage their members and roles, and schedule what the club reads next.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return usageError("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return s.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close()
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitInvalidRequest, Err: err}
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides BOOKCLUB_DB)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "bearer token identifying the caller (overrides BOOKCLUB_TOKEN)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(newUserCommand(s))
	cmd.AddCommand(newClubCommand(s))
	cmd.AddCommand(newMemberCommand(s))
	cmd.AddCommand(newItemCommand(s))

	return cmd
}

// open loads configuration, builds the logger, opens the database and
// resolves the caller.
func (s *session) open(cmd *cobra.Command) error {
	cfg, err := config.Load(s.opts.EnvFile)
	if err != nil {
		return err
	}
	if s.opts.DBPath != "" {
		cfg.DBPath = s.opts.DBPath
	}
	if s.opts.Token != "" {
		cfg.Token = s.opts.Token
	}
	if s.opts.Verbose {
		cfg.LogLevel = "debug"
	}
	s.cfg = cfg

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return usageError("%v", err)
	}
	s.log = logger.WithFields(logrus.Fields{
		"op_id":   uuid.NewString(),
		"command": cmd.CommandPath(),
	})
	s.out = printer{format: s.opts.Format, w: cmd.OutOrStdout()}

	s.caller = club.Anonymous
	if strings.TrimSpace(cfg.Token) != "" {
		verifier, err := identity.NewVerifier(cfg.JWTSecret)
		if err != nil {
			return usageError("BOOKCLUB_JWT_SECRET is required to verify tokens")
		}
		userID, ok, err := verifier.Resolve(cfg.Token)
		if err != nil {
			return &ExitError{Code: ExitForbidden, Err: err}
		}
		if ok {
			s.caller = userID
		}
	}

	mgr, err := club.NewManager(cfg.DBPath, cfg.BusyTimeout, s.log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	s.mgr = mgr
	s.log.WithField("caller", s.caller).Debug("session opened")
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// exactArgs is cobra.ExactArgs reporting an invalid request.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &ExitError{Code: ExitInvalidRequest, Err: err}
		}
		return nil
	}
}

func parseID(arg, label string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError("invalid %s: %q", label, arg)
	}
	return id, nil
}

// readPassword reads a password with masking when stdin is a terminal, and
// a single line otherwise.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(bytePassword)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s := &session{}
	cmd := newRootCommand(s)
	defer s.close()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	p := printer{format: "text", w: stderr}
	if f := cmd.PersistentFlags().Lookup("format"); f != nil && f.Value.String() == "json" {
		p = printer{format: "json", w: stdout}
	}
	p.fail(err)
	return exitCode(err)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
