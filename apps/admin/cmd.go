package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/ratelimit"
	"github.com/edusphere/edusphere/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB // nil with the in-memory engine
	usrSvc     *user.Service
	orgSvc     *organization.Service
	limiter    ratelimit.Limiter // nil unless the limiter store is shared
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  createuser -email EMAIL -first NAME -last NAME [-role ROLE] [-org SLUG] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  unthrottle (-policy POLICY (-user ID | -ip IP) | -key KEY) - clear a rate limit counter")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createUserCmd := flag.NewFlagSet("createuser", flag.ContinueOnError)
	createUserCmd.SetOutput(cli.out)
	createUserEmail := createUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	createUserFirst := createUserCmd.String("first", "", "The user's first name.")
	createUserLast := createUserCmd.String("last", "", "The user's last name.")
	createUserRole := createUserCmd.String("role", string(auth.RoleSuperAdmin), "The user's role.")
	createUserOrg := createUserCmd.String("org", platformSlug, "The slug of the user's organization. Created when missing.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	unthrottleCmd := flag.NewFlagSet("unthrottle", flag.ContinueOnError)
	unthrottleCmd.SetOutput(cli.out)
	unthrottlePolicy := unthrottleCmd.String("policy", string(ratelimit.AuthLogin), "The rate limit policy.")
	unthrottleUser := unthrottleCmd.String("user", "", "The throttled user ID.")
	unthrottleIP := unthrottleCmd.String("ip", "", "The throttled client IP.")
	unthrottleKey := unthrottleCmd.String("key", "", "A raw limiter key, as \"<policy>:<identifier>\".")

	switch args[1] {
	case "createuser":
		if err := createUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createUserEmail == "" || *createUserFirst == "" || *createUserLast == "" {
			createUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createUserCmd.Usage()
			return errHelp
		}
		return cli.createUser(ctx, user.NewUser{
			Email:     *createUserEmail,
			FirstName: *createUserFirst,
			LastName:  *createUserLast,
			Role:      auth.Role(*createUserRole),
			Password:  pwd,
		}, *createUserOrg)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetPasswordEmail, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "unthrottle":
		if err := unthrottleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *unthrottleKey != "" {
			return cli.resetKey(ctx, *unthrottleKey)
		}
		if *unthrottleUser == "" && *unthrottleIP == "" {
			unthrottleCmd.Usage()
			return errHelp
		}
		return cli.unthrottle(ctx, ratelimit.Policy(*unthrottlePolicy), *unthrottleUser, *unthrottleIP)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

// validationError flattens validation failures into one readable error.
func (cli *commandLine) validationError(err error) error {
	var msgs []string
	switch e := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fe := range e {
			msgs = append(msgs, fe.Field()+": "+fe.Translate(cli.translator))
		}
	case *core.ValidationError:
		for _, fe := range e.Fields {
			msgs = append(msgs, fe.Field+": "+fe.Error)
		}
	}
	if len(msgs) == 0 {
		return err
	}
	return errors.New(strings.Join(msgs, "; "))
}
