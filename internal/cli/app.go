package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/yukikurage/primecode/internal/client"
	"github.com/yukikurage/primecode/internal/dto"
)

// ErrNotSignedIn is returned by commands that need an authenticated session.
var ErrNotSignedIn = errors.New("not signed in; run `taskctl login` first")

// ErrUsage is returned for unknown commands or missing arguments.
var ErrUsage = errors.New("usage error")

const usage = `Usage: taskctl <command> [flags]

Commands:
  register                  create an account and sign in
  login                     sign in
  logout                    forget the stored token
  whoami                    show the signed-in user
  profile -name N [-bio B]  update your profile
  tasks list [-search S] [-status S] [-page N] [-limit N]
  tasks add -title T [-description D] [-status S] [-priority P] [-tags a,b]
  tasks update <id> [-title T] [-description D] [-status S] [-priority P] [-tags a,b]
  tasks done <id>
  tasks rm <id>
`

type App struct {
	session *client.Session
	api     *client.Client
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(session *client.Session, api *client.Client, in io.Reader, out io.Writer) *App {
	return &App{
		session: session,
		api:     api,
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

// Run executes one command line.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	}

	if a.session.Bootstrap(ctx) != client.StateAuthenticated {
		if cmd == "logout" {
			fmt.Fprintln(a.out, "Already signed out")
			return nil
		}
		return ErrNotSignedIn
	}

	switch cmd {
	case "logout":
		if err := a.session.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Signed out")
		return nil
	case "whoami":
		user, _ := a.session.User()
		a.printUser(user)
		return nil
	case "profile":
		return a.profile(ctx, rest)
	case "tasks":
		return a.tasks(ctx, rest)
	}

	fmt.Fprint(a.out, usage)
	return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register", a.out)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *name == "" {
		if *name, err = GetSimpleText(a.reader, "Name", a.out); err != nil {
			return err
		}
	}
	if *email == "" {
		if *email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
			return err
		}
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	user, err := a.session.Register(ctx, client.RegisterRequest{Name: *name, Email: *email, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s\n", user.Name)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login", a.out)
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *email == "" {
		if *email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
			return err
		}
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	user, err := a.session.Login(ctx, client.LoginRequest{Email: *email, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", user.Email)
	return nil
}

func (a *App) profile(ctx context.Context, args []string) error {
	current, _ := a.session.User()

	fs := newFlagSet("profile", a.out)
	name := fs.String("name", current.Name, "display name")
	bio := fs.String("bio", current.Bio, "short bio")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.api.UpdateProfile(ctx, client.ProfileRequest{Name: *name, Bio: *bio})
	if err != nil {
		return err
	}
	a.session.SetUser(*user)
	a.printUser(*user)
	return nil
}

func (a *App) tasks(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: tasks needs a subcommand", ErrUsage)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list", "ls":
		return a.listTasks(ctx, rest)
	case "add":
		return a.addTask(ctx, rest)
	case "update":
		return a.updateTask(ctx, rest)
	case "done":
		id, err := taskID(rest)
		if err != nil {
			return err
		}
		done := "done"
		task, err := a.api.UpdateTask(ctx, id, client.TaskPatch{Status: &done})
		if err != nil {
			return err
		}
		a.printTasks([]dto.TaskDTO{*task})
		return nil
	case "rm", "delete":
		id, err := taskID(rest)
		if err != nil {
			return err
		}
		if err := a.api.DeleteTask(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Task removed")
		return nil
	}

	fmt.Fprint(a.out, usage)
	return fmt.Errorf("%w: unknown tasks subcommand %q", ErrUsage, sub)
}

func (a *App) listTasks(ctx context.Context, args []string) error {
	fs := newFlagSet("tasks list", a.out)
	var q client.TaskQuery
	fs.StringVar(&q.Search, "search", "", "free text filter")
	fs.StringVar(&q.Status, "status", "", "todo, in-progress or done")
	fs.IntVar(&q.Page, "page", 0, "page number")
	fs.IntVar(&q.Limit, "limit", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := a.api.ListTasks(ctx, q)
	if err != nil {
		return err
	}
	if len(res.Tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks")
		return nil
	}
	a.printTasks(res.Tasks)
	if p := res.Pagination; p != nil {
		fmt.Fprintf(a.out, "page %d, %d per page, %d total\n", p.Page, p.Limit, p.Total)
	}
	return nil
}

func (a *App) addTask(ctx context.Context, args []string) error {
	fs := newFlagSet("tasks add", a.out)
	var in client.TaskInput
	var tags string
	fs.StringVar(&in.Title, "title", "", "task title")
	fs.StringVar(&in.Description, "description", "", "task description")
	fs.StringVar(&in.Status, "status", "", "todo, in-progress or done")
	fs.StringVar(&in.Priority, "priority", "", "low, medium or high")
	fs.StringVar(&tags, "tags", "", "comma separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in.Tags = splitTags(tags)

	task, err := a.api.CreateTask(ctx, in)
	if err != nil {
		return err
	}
	a.printTasks([]dto.TaskDTO{*task})
	return nil
}

func (a *App) updateTask(ctx context.Context, args []string) error {
	id, err := taskID(args)
	if err != nil {
		return err
	}

	fs := newFlagSet("tasks update", a.out)
	title := fs.String("title", "", "task title")
	description := fs.String("description", "", "task description")
	status := fs.String("status", "", "todo, in-progress or done")
	priority := fs.String("priority", "", "low, medium or high")
	tags := fs.String("tags", "", "comma separated tags")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	// Only flags given on the command line are sent.
	var patch client.TaskPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "description":
			patch.Description = description
		case "status":
			patch.Status = status
		case "priority":
			patch.Priority = priority
		case "tags":
			list := splitTags(*tags)
			if list == nil {
				list = []string{}
			}
			patch.Tags = &list
		}
	})

	task, err := a.api.UpdateTask(ctx, id, patch)
	if err != nil {
		return err
	}
	a.printTasks([]dto.TaskDTO{*task})
	return nil
}

func (a *App) printUser(user dto.UserDTO) {
	fmt.Fprintf(a.out, "%s <%s>\n", user.Name, user.Email)
	if user.Bio != "" {
		fmt.Fprintln(a.out, user.Bio)
	}
}

func (a *App) printTasks(tasks []dto.TaskDTO) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tTITLE\tTAGS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, t.Title, strings.Join(t.Tags, ","))
	}
	tw.Flush()
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func taskID(args []string) (string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", fmt.Errorf("%w: task id required", ErrUsage)
	}
	return args[0], nil
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
