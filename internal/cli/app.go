// Package cli implements the single-shot taskhive command line tool.
// Each invocation logs in, performs one operation and logs out again,
// so no token ever has to be stored on disk.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/taskhive/taskhive/internal/client"
)

type App struct {
	client *client.Client
	out    io.Writer

	username    string
	password    string
	accessLevel string
}

// Options carry the global flags shared by every subcommand.
type Options struct {
	ServerAddr  string
	Username    string
	Password    string
	AccessLevel string
}

func NewApp(opts Options, out io.Writer) *App {
	return &App{
		client:      client.New(opts.ServerAddr),
		out:         out,
		username:    opts.Username,
		password:    opts.Password,
		accessLevel: opts.AccessLevel,
	}
}

const usage = `usage: taskhive [-s addr] [-u user] [-l level] [-p password] <command> [args]

commands:
  ping
  register
  projects
  create-project <name> <description>
  upload <project> <payload-file> [metadata-file]
  promote <project> <blob-id>
  list-blobs <project>
  get-blob <project> <blob-id> <out-file>
  delete-blob <project> <blob-id>
  tasks <project> <max>
  report <project> <task-id> <status> [result-file]
  graphs <project> [precision] [kind]
  update-graphs <project> <series-file>
`

// Run dispatches one subcommand. args excludes the global flags.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return flag.ErrHelp
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "ping":
		return a.Ping(ctx)
	case "register":
		return a.Register(ctx)
	case "projects":
		return a.Projects(ctx)
	case "create-project":
		return a.CreateProject(ctx, rest)
	case "upload":
		return a.Upload(ctx, rest)
	case "promote":
		return a.Promote(ctx, rest)
	case "list-blobs":
		return a.ListBlobs(ctx, rest)
	case "get-blob":
		return a.GetBlob(ctx, rest)
	case "delete-blob":
		return a.DeleteBlob(ctx, rest)
	case "tasks":
		return a.Tasks(ctx, rest)
	case "report":
		return a.Report(ctx, rest)
	case "graphs":
		return a.Graphs(ctx, rest)
	case "update-graphs":
		return a.UpdateGraphs(ctx, rest)
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// withSession logs in, runs fn with the token and always tries to log
// out afterwards.
func (a *App) withSession(ctx context.Context, fn func(token string) error) error {
	password, err := a.getPassword()
	if err != nil {
		return err
	}

	token, err := a.client.Login(ctx, a.username, password, a.accessLevel)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer a.client.Logout(ctx, token)

	return fn(token)
}
