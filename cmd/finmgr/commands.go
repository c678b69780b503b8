package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/api/remote"
	"github.com/jask/finmgr/internal/api/server"
	"github.com/jask/finmgr/internal/config"
	"github.com/jask/finmgr/internal/identity"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/secrets"
	"github.com/jask/finmgr/internal/testdata"
	"github.com/jask/finmgr/internal/tui"
)

type uiCmd struct {
	start string
}

func (*uiCmd) Name() string     { return "ui" }
func (*uiCmd) Synopsis() string { return "open the terminal interface (default)" }
func (*uiCmd) Usage() string {
	return `finmgr ui [-open <location>]

  Opens the terminal interface. Without api.base_url the backend runs
  in-process on a loopback port; otherwise the configured server is used.
`
}

func (c *uiCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "open", "", "Location to start at, e.g. /contacts.")
}

func (c *uiCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, done, err := setup()
	if err != nil {
		return fail("%v", err)
	}
	defer done()

	bundle, err := localization.Load()
	if err != nil {
		return fail("resources: %v", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	baseURL := cfg.API.BaseURL
	if baseURL == "" {
		b, db, err := openBackend(ctx, cfg, logger)
		if err != nil {
			return fail("database: %v", err)
		}
		defer db.Close()
		ready := make(chan string, 1)
		errc := make(chan error, 1)
		go func() { errc <- server.New(b, logger).ListenAndServe(ctx, "127.0.0.1:0", ready) }()
		select {
		case addr := <-ready:
			baseURL = "http://" + addr
		case err := <-errc:
			return fail("local api: %v", err)
		}
	}

	client := remote.New(baseURL, nil)
	tokens, err := secrets.DefaultStore()
	if err != nil {
		logger.Warn("token store unavailable", "err", err)
	}
	resume(ctx, client, tokens, baseURL, cfg.API.Username, cfg.API.Password(), logger)

	remember := func(lang string) {
		cfg.UI.Language = lang
		if err := config.Save(cfg); err != nil {
			logger.Warn("save language", "err", err)
		}
	}
	lang := cfg.UI.Language
	if u, err := client.CurrentUser(ctx); err == nil && u != nil && u.PreferredLanguage != "" && u.PreferredLanguage != lang {
		lang = u.PreferredLanguage
		remember(lang)
	}

	app := tui.New(ctx, tui.Options{
		Client:   client,
		Identity: identity.APIProvider{Client: client},
		Bundle:   bundle,
		Language: lang,
		Logger:   logger,
		PageSize: cfg.UI.PageSize,
		Currency: cfg.UI.Currency,
		Start:    c.start,
		Tokens:   tokens,
		Server:   baseURL,

		OnLanguage: remember,
	})
	if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fail("ui: %v", err)
	}
	return subcommands.ExitSuccess
}

// resume restores a stored session for serverURL, or signs in with the configured
// credentials. Failures leave the client anonymous; the UI then asks.
func resume(ctx context.Context, client *remote.Client, tokens *secrets.Store, serverURL, username, password string, logger *slog.Logger) {
	if tokens != nil {
		if token, err := tokens.Token(serverURL); err == nil && token != "" {
			client.SetToken(token)
			if _, err := client.CurrentUser(ctx); err == nil {
				return
			}
			client.SetToken("")
		}
	}
	if username == "" || password == "" {
		return
	}
	res, err := client.Login(ctx, username, password)
	if err != nil {
		logger.Debug("auto login failed", "user", username, "err", err)
		return
	}
	if tokens != nil {
		if err := tokens.SaveToken(serverURL, res.Token); err != nil {
			logger.Debug("save token", "err", err)
		}
	}
}

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the finance api over http" }
func (*serveCmd) Usage() string {
	return `finmgr serve [-addr <host:port>]

  Serves the api from the local database until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address. Defaults to server.addr.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, done, err := setup()
	if err != nil {
		return fail("%v", err)
	}
	defer done()

	addr := c.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	b, db, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return fail("database: %v", err)
	}
	defer db.Close()

	ready := make(chan string, 1)
	go func() {
		if a, ok := <-ready; ok {
			fmt.Fprintf(os.Stderr, "listening on http://%s\n", a)
		}
	}()
	if err := server.New(b, logger).ListenAndServe(ctx, addr, ready); err != nil {
		return fail("serve: %v", err)
	}
	return subcommands.ExitSuccess
}

type userAddCmd struct {
	admin    bool
	language string
}

func (*userAddCmd) Name() string     { return "useradd" }
func (*userAddCmd) Synopsis() string { return "create a user in the local database" }
func (*userAddCmd) Usage() string {
	return `finmgr useradd [-admin] [-lang en|de] <username>

  Creates a user. The password is read from standard input.
`
}

func (c *userAddCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.admin, "admin", false, "Grant admin rights.")
	f.StringVar(&c.language, "lang", "en", "Preferred language.")
}

func (c *userAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cfg, logger, done, err := setup()
	if err != nil {
		return fail("%v", err)
	}
	defer done()

	fmt.Fprint(os.Stderr, "password: ")
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && password == "" {
		return fail("read password: %v", err)
	}
	password = strings.TrimRight(password, "\r\n")

	b, db, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return fail("database: %v", err)
	}
	defer db.Close()

	u, err := b.CreateUser(ctx, api.UserRequest{
		Username:          f.Arg(0),
		Password:          password,
		IsAdmin:           c.admin,
		PreferredLanguage: c.language,
	})
	if err != nil {
		return fail("useradd: %v", err)
	}
	fmt.Printf("created %s (%s)\n", u.Username, u.ID)
	return subcommands.ExitSuccess
}

type backupCmd struct {
	list bool
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "back up the local database" }
func (*backupCmd) Usage() string {
	return `finmgr backup [-list]

  Writes a consistent copy of the database to backup.dir, or lists the
  existing backups.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "List backups instead of creating one.")
}

func (c *backupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, done, err := setup()
	if err != nil {
		return fail("%v", err)
	}
	defer done()

	b, db, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return fail("database: %v", err)
	}
	defer db.Close()

	if c.list {
		backups, err := b.ListBackups(ctx)
		if err != nil {
			return fail("backup: %v", err)
		}
		for _, bk := range backups {
			fmt.Printf("%-40s %10s  %s\n", bk.FileName, humanize.Bytes(uint64(bk.Size)), humanize.Time(bk.CreatedAt))
		}
		return subcommands.ExitSuccess
	}
	bk, err := b.CreateBackup(ctx)
	if err != nil {
		return fail("backup: %v", err)
	}
	fmt.Printf("wrote %s (%s)\n", bk.FileName, humanize.Bytes(uint64(bk.Size)))
	return subcommands.ExitSuccess
}

type demoCmd struct {
	seed int64
}

func (*demoCmd) Name() string     { return "demo" }
func (*demoCmd) Synopsis() string { return "fill the local database with sample data" }
func (*demoCmd) Usage() string {
	return `finmgr demo [-seed <n>]

  Adds a sample bank, accounts, savings plans, securities and a month of
  postings to the local database.
`
}

func (c *demoCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.seed, "seed", 0, "Random seed for the postings. Defaults to the current time.")
}

func (c *demoCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, done, err := setup()
	if err != nil {
		return fail("%v", err)
	}
	defer done()

	b, db, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return fail("database: %v", err)
	}
	defer db.Close()

	now := time.Now()
	seed := c.seed
	if seed == 0 {
		seed = now.UnixNano()
	}
	sum, err := testdata.Seed(ctx, b, now, seed)
	if err != nil {
		return fail("demo: %v", err)
	}
	fmt.Printf("created %d contacts, %d accounts, %d savings plans, %d securities and %d postings\n",
		sum.Contacts, sum.Accounts, sum.SavingsPlans, sum.Securities, sum.Postings)
	return subcommands.ExitSuccess
}
