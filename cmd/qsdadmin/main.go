package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/auth"
	"github.com/tendant/qsd/pkg/qsd/config"
	"github.com/tendant/qsd/pkg/qsd/seed"
)

const usage = `QSD Admin CLI

Manages users and quasi-static data records directly against the configured database.

USAGE:
  qsdadmin <command> [options]

COMMANDS:
  create-user   Create a user
  users         List users
  list          List records
  show <url>    Show a record
  delete <url>  Delete a record
  seed <file>   Apply a YAML fixtures file

ENVIRONMENT VARIABLES:
  DATABASE_URL      memory, postgres://... or sqlite://<path> (default: memory)
  DB_SCHEMA         PostgreSQL schema name (default: qsd)
  CACHE_URL         Use the server's redis:// cache so deletes reach running servers

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  # Create an administrator
  qsdadmin create-user --username=admin --password=secret --role=Administrator

  # List records below learn/
  qsdadmin list --prefix=learn

  # Show a record as JSON
  qsdadmin show learn/foo --json

OPTIONS:
  --username=<name>       Username (create-user)
  --password=<password>   Password (create-user)
  --email=<email>         Email (create-user)
  --role=<role>           Role, repeatable (create-user)
  --prefix=<url>          URL prefix filter (list)
  --include-disabled      Include disabled records (list)
  --limit=<n>             Maximum results (list, default: 100)
  --offset=<n>            Pagination offset (list, default: 0)
  --json                  Output as JSON
`

type options struct {
	args            []string
	username        string
	password        string
	email           string
	roles           []string
	prefix          string
	includeDisabled bool
	limit           int
	offset          int
	useJSON         bool
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	// Check for help
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage)
		os.Exit(0)
	}

	cfg, err := config.Load(config.WithDotEnv(), config.WithEnv(), config.WithSeedFile(""))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DatabaseType == "memory" {
		log.Println("Warning: DATABASE_URL is not set, changes will be lost on exit")
	}

	ctx := context.Background()
	app, err := cfg.Build(ctx)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}
	defer app.Close()

	opts := parseOptions(os.Args[2:])

	var runErr error
	switch command {
	case "create-user":
		runErr = handleCreateUser(ctx, app.Users, opts)
	case "users":
		runErr = handleUsers(ctx, app.Users, opts)
	case "list":
		runErr = handleList(ctx, app.Service, opts)
	case "show":
		runErr = handleShow(ctx, app.Service, opts)
	case "delete":
		runErr = handleDelete(ctx, app.Service, opts)
	case "seed":
		runErr = handleSeed(ctx, app, opts)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
	if runErr != nil {
		app.Close()
		log.Fatalf("%s failed: %v", command, runErr)
	}
}

func parseOptions(args []string) options {
	opts := options{limit: 100}

	for _, arg := range args {
		key, value := parseFlag(arg)
		switch key {
		case "":
			opts.args = append(opts.args, arg)
		case "json":
			opts.useJSON = true
		case "username":
			opts.username = value
		case "password":
			opts.password = value
		case "email":
			opts.email = value
		case "role":
			opts.roles = append(opts.roles, value)
		case "prefix":
			opts.prefix = value
		case "include-disabled":
			opts.includeDisabled = true
		case "limit":
			if n, err := strconv.Atoi(value); err == nil {
				opts.limit = n
			}
		case "offset":
			if n, err := strconv.Atoi(value); err == nil {
				opts.offset = n
			}
		}
	}

	return opts
}

func parseFlag(arg string) (string, string) {
	if !strings.HasPrefix(arg, "--") || len(arg) <= 2 {
		return "", ""
	}
	key, value, found := strings.Cut(arg[2:], "=")
	if !found {
		return key, "true"
	}
	return key, value
}

func handleCreateUser(ctx context.Context, users *auth.Service, opts options) error {
	user, err := users.CreateUser(ctx, auth.CreateUserRequest{
		Username: opts.username,
		Email:    opts.email,
		Password: opts.password,
		Roles:    opts.roles,
	})
	if err != nil {
		return err
	}
	if opts.useJSON {
		return printJSON(user)
	}
	fmt.Printf("Created user %s (%s) roles=%s\n", user.Username, user.ID, strings.Join(user.Roles, ","))
	return nil
}

func handleUsers(ctx context.Context, users *auth.Service, opts options) error {
	list, err := users.ListUsers(ctx)
	if err != nil {
		return err
	}
	if opts.useJSON {
		return printJSON(list)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tUSERNAME\tEMAIL\tROLES\tCREATED\n")
	for _, u := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			u.ID.String()[:8]+"...",
			u.Username,
			dash(u.Email),
			dash(strings.Join(u.Roles, ",")),
			u.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d\n", len(list))
	return nil
}

func handleList(ctx context.Context, svc qsd.Service, opts options) error {
	records, err := svc.ListRecords(ctx, qsd.ListRecordsRequest{
		URLPrefix:       opts.prefix,
		IncludeDisabled: opts.includeDisabled,
		Limit:           opts.limit,
		Offset:          opts.offset,
	})
	if err != nil {
		return err
	}
	if opts.useJSON {
		return printJSON(records)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tURL\tNAME\tTITLE\tDISABLED\tUPDATED\n")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
			r.ID.String()[:8]+"...",
			r.URL,
			dash(r.Name),
			truncate(r.Title, 30),
			r.Disabled,
			r.UpdatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d", len(records))
	if len(records) == opts.limit {
		fmt.Printf(" (may have more, use --offset=%d to continue)", opts.offset+opts.limit)
	}
	fmt.Println()
	return nil
}

func handleShow(ctx context.Context, svc qsd.Service, opts options) error {
	if len(opts.args) != 1 {
		return fmt.Errorf("usage: qsdadmin show <url>")
	}
	record, err := svc.GetRecordByURL(ctx, opts.args[0])
	if err != nil {
		return err
	}
	if opts.useJSON {
		return printJSON(record)
	}

	fmt.Printf("ID:          %s\n", record.ID)
	fmt.Printf("URL:         %s (%s)\n", record.URL, qsd.PageURL(record.URL))
	fmt.Printf("Name:        %s\n", dash(record.Name))
	fmt.Printf("Title:       %s\n", record.Title)
	fmt.Printf("Description: %s\n", dash(record.Description))
	fmt.Printf("Keywords:    %s\n", dash(record.Keywords))
	fmt.Printf("Author:      %s\n", record.AuthorID)
	fmt.Printf("Disabled:    %t\n", record.Disabled)
	fmt.Printf("Updated:     %s\n", record.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("\n%s\n", record.Content)
	return nil
}

func handleDelete(ctx context.Context, svc qsd.Service, opts options) error {
	if len(opts.args) != 1 {
		return fmt.Errorf("usage: qsdadmin delete <url>")
	}
	record, err := svc.GetRecordByURL(ctx, opts.args[0])
	if err != nil {
		return err
	}
	if err := svc.DeleteRecord(ctx, record.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted %s (%s)\n", record.URL, record.ID)
	return nil
}

func handleSeed(ctx context.Context, app *config.App, opts options) error {
	if len(opts.args) != 1 {
		return fmt.Errorf("usage: qsdadmin seed <file>")
	}
	fx, err := seed.Load(opts.args[0])
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, app.Service, app.Users, fx)
	if err != nil {
		return err
	}
	fmt.Printf("Created %d users, %d nav categories, %d records\n", res.Users, res.NavCategories, res.Records)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
