package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	sqliteadapter "github.com/ericfisherdev/krishiai/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/krishiai/internal/application"
	"github.com/ericfisherdev/krishiai/internal/config"
	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// CLI defines the command-line interface structure parsed by Kong.
type CLI struct {
	EnvFile string `name:"env-file" help:"Load environment variables from this file before reading configuration"`
	DB      string `name:"db" help:"SQLite database path (overrides KRISHIAI_DB_PATH)"`

	Migrate MigrateCmd `cmd:"" help:"Apply database migrations"`
	User    UserCmd    `cmd:"" help:"Manage farmer accounts"`
	Keys    KeysCmd    `cmd:"" help:"Manage stored Gemini API keys"`
	Prices  PricesCmd  `cmd:"" help:"Manage mandi price snapshots"`
}

type (
	MigrateCmd struct{}

	UserCmd struct {
		Create UserCreateCmd `cmd:"" help:"Create an account"`
	}
	UserCreateCmd struct {
		Name       string `required:"" help:"Farmer name"`
		Identifier string `required:"" help:"Phone number or email used to sign in"`
		Password   string `required:"" help:"Initial password (at least 8 characters)"`
		Village    string `help:"Village"`
		State      string `help:"State"`
		Language   string `default:"en" help:"Preferred language code (en, hi, mr, te, ta)"`
	}

	KeysCmd struct {
		Set   KeysSetCmd   `cmd:"" help:"Store Gemini keys; they take priority over the environment"`
		Show  KeysShowCmd  `cmd:"" help:"Show stored and effective Gemini keys, masked"`
		Clear KeysClearCmd `cmd:"" help:"Remove stored Gemini keys"`
	}
	KeysSetCmd struct {
		Primary    string `help:"Primary key"`
		Additional string `help:"Comma-separated additional keys"`
	}
	KeysShowCmd  struct{}
	KeysClearCmd struct{}

	PricesCmd struct {
		Import PricesImportCmd `cmd:"" help:"Import price quotes from a YAML file"`
	}
	PricesImportCmd struct {
		File string `arg:"" type:"existingfile" help:"YAML file with a prices list"`
	}
)

// env is the opened database and configuration shared by every command.
type env struct {
	cfg    *config.Config
	db     *sqliteadapter.DB
	schema uint
	out    io.Writer
}

type commandHandler func(ctx context.Context, cli CLI, e *env) error

var handlers = map[string]commandHandler{
	"migrate":              runMigrate,
	"user create":          runUserCreate,
	"keys set":             runKeysSet,
	"keys show":            runKeysShow,
	"keys clear":           runKeysClear,
	"prices import <file>": runPricesImport,
}

// run parses args, dispatches the command and returns the exit code.
func run(args []string, out io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("krishictl"),
		kong.Description("Administer a KrishiAI installation."),
		kong.Writers(out, out),
	)
	if err != nil {
		return exitWithError(out, err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return exitWithError(out, err)
	}

	handler, ok := handlers[kctx.Command()]
	if !ok {
		return exitWithError(out, fmt.Errorf("unknown command %q", kctx.Command()))
	}

	if cli.EnvFile != "" {
		if err := godotenv.Load(cli.EnvFile); err != nil {
			return exitWithError(out, fmt.Errorf("load env file: %w", err))
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return exitWithError(out, err)
	}
	if cli.DB != "" {
		cfg.DBPath = cli.DB
	}

	ctx := context.Background()
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return exitWithError(out, err)
	}
	defer func() { _ = db.Close() }()

	// Every command but migrate expects the schema; applying it is idempotent.
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return exitWithError(out, err)
	}

	if err := handler(ctx, cli, &env{cfg: cfg, db: db, schema: version, out: out}); err != nil {
		return exitWithError(out, err)
	}
	return 0
}

func exitWithError(out io.Writer, err error) int {
	fmt.Fprintf(out, "error: %v\n", err)
	return 1
}

func runMigrate(_ context.Context, _ CLI, e *env) error {
	fmt.Fprintf(e.out, "database %s is up to date (schema version %d)\n", e.cfg.DBPath, e.schema)
	return nil
}

func runUserCreate(ctx context.Context, cli CLI, e *env) error {
	c := cli.User.Create
	user, err := application.NewAuthService(sqliteadapter.NewUserRepo(e.db)).Register(ctx, application.RegisterInput{
		Name:       c.Name,
		Identifier: c.Identifier,
		Password:   c.Password,
		Village:    c.Village,
		State:      c.State,
		Language:   model.ParseLanguage(c.Language),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "created user %d (%s)\n", user.ID, user.Identifier)
	return nil
}

func (e *env) credentials() (*sqliteadapter.CredentialRepo, error) {
	key, err := e.cfg.DeriveKey(config.PurposeCredentials)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, errors.New("KRISHIAI_SECRET_KEY is required to store keys")
	}
	return sqliteadapter.NewCredentialRepo(e.db, key), nil
}

func runKeysSet(ctx context.Context, cli CLI, e *env) error {
	c := cli.Keys.Set
	if strings.TrimSpace(c.Primary) == "" && strings.TrimSpace(c.Additional) == "" {
		return errors.New("pass --primary and/or --additional")
	}

	store, err := e.credentials()
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(c.Primary); v != "" {
		if err := store.Set(ctx, model.CredentialServiceGemini, model.CredentialKeyPrimary, v); err != nil {
			return err
		}
	}
	if v := strings.TrimSpace(c.Additional); v != "" {
		if err := store.Set(ctx, model.CredentialServiceGemini, model.CredentialKeyAdditional, v); err != nil {
			return err
		}
	}
	fmt.Fprintln(e.out, "stored gemini keys")
	return nil
}

func runKeysShow(ctx context.Context, _ CLI, e *env) error {
	store, err := e.credentials()
	if err != nil {
		return err
	}
	stored, err := store.GetAll(ctx, model.CredentialServiceGemini)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "stored %s: %s\n", model.CredentialKeyPrimary, maskList(stored[model.CredentialKeyPrimary]))
	fmt.Fprintf(e.out, "stored %s: %s\n", model.CredentialKeyAdditional, maskList(stored[model.CredentialKeyAdditional]))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	effective, err := application.NewKeySource(store, e.cfg.GeminiAPIKey, e.cfg.GeminiAPIKeys, logger).AIKeys(ctx)
	if err != nil {
		return err
	}
	masked := make([]string, 0, len(effective))
	for _, k := range effective {
		masked = append(masked, maskKey(k))
	}
	fmt.Fprintf(e.out, "effective (%d): %s\n", len(effective), strings.Join(masked, ", "))
	return nil
}

func runKeysClear(ctx context.Context, _ CLI, e *env) error {
	store, err := e.credentials()
	if err != nil {
		return err
	}
	for _, key := range []string{model.CredentialKeyPrimary, model.CredentialKeyAdditional} {
		if err := store.Delete(ctx, model.CredentialServiceGemini, key); err != nil {
			return err
		}
	}
	fmt.Fprintln(e.out, "cleared stored gemini keys")
	return nil
}

func runPricesImport(ctx context.Context, cli CLI, e *env) error {
	f, err := os.Open(cli.Prices.Import.File)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	prices, err := application.ParsePriceImport(f, time.Now().UTC())
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewMarketService(nil, sqliteadapter.NewMarketPriceRepo(e.db), nil, logger)
	if err := svc.Import(ctx, prices); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "imported %d price quotes\n", len(prices))
	return nil
}

// maskKey keeps the first and last four characters of a key.
func maskKey(k string) string {
	if len(k) <= 8 {
		return strings.Repeat("*", len(k))
	}
	return k[:4] + "…" + k[len(k)-4:]
}

func maskList(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(none)"
	}
	parts := strings.Split(v, ",")
	for i, p := range parts {
		parts[i] = maskKey(strings.TrimSpace(p))
	}
	return strings.Join(parts, ", ")
}
