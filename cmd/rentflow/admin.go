package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Strob0t/RentFlow/internal/adapter/postgres"
	"github.com/Strob0t/RentFlow/internal/config"
	"github.com/Strob0t/RentFlow/internal/service"
)

// runAdmin dispatches admin subcommands (show-identity, clear-identity, migrate-status).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "show-identity":
		return runAdminShowIdentity(args[1:])
	case "clear-identity":
		return runAdminClearIdentity(args[1:])
	case "migrate-status":
		return runAdminMigrateStatus(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: rentflow admin <command> [options]

Commands:
  show-identity    Print the saved landlord and tenant
  clear-identity   Forget the saved landlord and tenant
  migrate-status   Print the applied PostgreSQL migration version
  help             Show this help message

Examples:
  rentflow admin show-identity
  rentflow admin clear-identity --yes
  RENTFLOW_STORAGE_BACKEND=postgres rentflow admin migrate-status
`)
}

func loadAdminDeps(ctx context.Context) (*service.IdentityCache, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return service.NewIdentityCache(st.store, cfg.Storage.Prefix, nil), st.Close, nil
}

func runAdminShowIdentity(args []string) error {
	fs := flag.NewFlagSet("show-identity", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	identities, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	landlord, tenant := identities.Load(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RECORD\tFIELD\tVALUE")
	rows := [][3]string{
		{"landlord", "name", landlord.Name},
		{"landlord", "phone", landlord.Phone},
		{"tenant", "name", tenant.Name},
		{"tenant", "address", tenant.Address},
		{"tenant", "contact", tenant.Contact},
	}
	for _, row := range rows {
		// Addresses may span lines; keep one row per field.
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", row[0], row[1], strings.ReplaceAll(row[2], "\n", " / "))
	}
	return w.Flush()
}

func runAdminClearIdentity(args []string) error {
	fs := flag.NewFlagSet("clear-identity", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*yes {
		ok, err := confirm("Forget the saved landlord and tenant? [y/N] ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}
	}

	ctx := context.Background()
	identities, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := identities.Clear(ctx); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Saved identities cleared.")
	return nil
}

func runAdminMigrateStatus(args []string) error {
	fs := flag.NewFlagSet("migrate-status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.Backend != config.BackendPostgres {
		return fmt.Errorf("storage backend is %q, migrations only apply to %q", cfg.Storage.Backend, config.BackendPostgres)
	}

	version, err := postgres.MigrationVersion(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	fmt.Printf("identity_records schema version: %d\n", version)
	return nil
}

// confirm asks a yes/no question on an interactive terminal. Without a
// terminal it refuses, so scripts must pass --yes.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // fd fits in int
		return false, fmt.Errorf("stdin is not a terminal; pass --yes to confirm")
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
