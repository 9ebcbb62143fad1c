package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/client/client"
	"github.com/dmitrijs2005/regkeeper/internal/client/config"
	"github.com/dmitrijs2005/regkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/regkeeper/internal/client/models"
	"github.com/dmitrijs2005/regkeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/regkeeper/internal/client/services"
	"github.com/dmitrijs2005/regkeeper/internal/client/wizard"
	"github.com/dmitrijs2005/regkeeper/internal/cryptox"
	"github.com/dmitrijs2005/regkeeper/internal/dbx"
	"github.com/dmitrijs2005/regkeeper/internal/filex"
	"github.com/dmitrijs2005/regkeeper/internal/logging"
	"github.com/hashicorp/go-multierror"
)

// sessions is the part of SessionService the CLI drives.
type sessions interface {
	Login(ctx context.Context, username, password string) (models.Session, error)
	Logout(ctx context.Context) error
	Current() *models.Session
}

// registryAPI extends the wizard's endpoints with the read-only lookups.
type registryAPI interface {
	wizard.RegistryAPI
	NewStudentList(ctx context.Context, instituteID int64) ([]map[string]any, error)
	StudentInfo(ctx context.Context, studentID int64) (map[string]any, error)
}

type registryLogout interface {
	Logout(ctx context.Context, token string) error
}

type App struct {
	config    *config.Config
	log       logging.Logger
	closers   []io.Closer
	tokens    *services.TokenManager
	creds     *credentials.Registry
	session   sessions
	registry  registryAPI
	regAuth   registryLogout
	wizard    *wizard.Wizard
	refresher *services.Refresher
	reader    *bufio.Reader
	out       io.Writer
	clock     func() time.Time
}

func loadEncrypter(path string) (cryptox.FieldEncrypter, error) {
	pemBytes := []byte(cryptox.RegistryPublicKeyPEM)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		pemBytes = b
	}
	return cryptox.NewRSAFieldEncrypter(pemBytes)
}

// NewApp wires storage, HTTP clients and services from c. Everything opened
// here is released by Close.
func NewApp(ctx context.Context, c *config.Config) (app *App, err error) {
	app = &App{config: c, reader: bufio.NewReader(os.Stdin), out: os.Stdout, clock: time.Now}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	log, logCloser, err := logging.New(logging.Options{File: c.LogFile, Level: c.LogLevel})
	if err != nil {
		return app, fmt.Errorf("logging: %w", err)
	}
	app.log = log
	app.closers = append(app.closers, logCloser)

	dialect, err := dbx.ParseDialect(c.DBDriver)
	if err != nil {
		return app, err
	}
	if dialect == dbx.SQLite {
		if err := filex.EnsureParentDir(filex.SQLitePath(c.DSN)); err != nil {
			return app, err
		}
	}
	repos := repomanager.New(dialect, nil)
	db, err := repomanager.Open(ctx, repos, c.DSN)
	if err != nil {
		return app, fmt.Errorf("open database: %w", err)
	}
	app.closers = append(app.closers, db)

	cipher, err := services.OpenCipher(ctx, db, repos, c.StoreSecret)
	if err != nil {
		return app, err
	}
	repos.SetCipher(cipher)

	enc, err := loadEncrypter(c.PublicKeyFile)
	if err != nil {
		return app, err
	}

	httpClient := client.NewHTTPClient(c.HTTPTimeout)
	regAuth := client.NewRegistryAuthClient(c.RegistryURL, httpClient, enc, c.DeviceInfo, log.With("component", "registry-auth"))
	app.regAuth = regAuth

	creds, err := credentials.Load(c.CredentialsFile)
	if err != nil {
		return app, err
	}
	app.creds = creds

	app.tokens = services.NewTokenManager(regAuth, creds, services.NewSQLTokenStore(db, repos), log.With("component", "tokens"))
	if err := app.tokens.Load(ctx); err != nil {
		return app, err
	}

	app.registry = client.NewRegistryAPIClient(c.RegistryURL, httpClient, app.tokens, log.With("component", "registry-api"))

	lms := client.NewLMSClient(c.LMSURL, c.LMSService, httpClient, log.With("component", "lms"))
	ss := services.NewSessionService(lms, app.tokens, db, repos, c.AdminUsers, log.With("component", "session"))
	if err := ss.Restore(ctx); err != nil {
		return app, err
	}
	app.session = ss

	app.wizard = wizard.New(app.registry, app.newArchiver(ctx), c.DefaultInstituteID, log.With("component", "wizard"))
	app.refresher = services.NewRefresher(app.tokens, creds, c.RefreshInterval, c.RefreshLookahead, log.With("component", "refresher"))
	return app, nil
}

// newArchiver returns nil when no bucket is configured or the archive cannot
// be set up; the wizard runs without one.
func (a *App) newArchiver(ctx context.Context) wizard.Archiver {
	if a.config.ArchiveBucket == "" {
		return nil
	}
	arch, err := wizard.NewS3Archiver(ctx, wizard.ArchiveOptions{
		Bucket:          a.config.ArchiveBucket,
		Region:          a.config.ArchiveRegion,
		Endpoint:        a.config.ArchiveEndpoint,
		Prefix:          a.config.ArchivePrefix,
		AccessKeyID:     a.config.ArchiveAccessKeyID,
		SecretAccessKey: a.config.ArchiveSecretAccessKey,
	})
	if err != nil {
		a.log.Warn(ctx, "submission archive disabled", "error", err)
		return nil
	}
	return arch
}

// Close stops background work and releases resources in reverse order.
func (a *App) Close() error {
	if a.refresher != nil {
		a.refresher.Stop()
	}
	var result *multierror.Error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	a.closers = nil
	return result.ErrorOrNil()
}

// Run attaches the terminal, starts the refresher and blocks in the REPL
// until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.tokens.Attach(bearerNotice{out: a.out})
	a.refresher.Start(ctx)

	states, cancel := a.tokens.Subscribe()
	defer cancel()
	go a.watchErrors(ctx, states)

	fmt.Fprintln(a.out, "Welcome to regkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}

// watchErrors prints each new lastError once, so background refresh
// failures reach the operator between commands.
func (a *App) watchErrors(ctx context.Context, states <-chan models.TokenState) {
	last := ""
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			if st.LastError != "" && st.LastError != last {
				fmt.Fprintln(a.out, red("! "+st.LastError))
			}
			last = st.LastError
		}
	}
}

func (a *App) status() string {
	s := renderSession(a.session.Current())
	if rec, ok := a.tokens.Current(); ok {
		if s != "" {
			s += " "
		}
		s += "@" + rec.Username
	}
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

func (a *App) isLoggedIn() bool {
	return a.session.Current() != nil
}

func (a *App) isAdmin() bool {
	s := a.session.Current()
	return s != nil && s.IsAdmin
}

// bearerNotice tells the operator which account outbound calls now use.
type bearerNotice struct {
	out io.Writer
}

func (b bearerNotice) SetBearer(username, _ string) {
	fmt.Fprintf(b.out, "Registry calls now use %s\n", username)
}

func (b bearerNotice) ClearBearer() {
	fmt.Fprintln(b.out, "No registry token selected")
}
