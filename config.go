package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bitterlily/codeboard/database"
	"github.com/bitterlily/codeboard/game"
	"github.com/bitterlily/codeboard/server"
)

type Config struct {
	bind        string
	port        int
	baseURL     string
	tokenSecret string
	verbose     bool

	dbDriver   string
	dbHost     string
	dbPort     int
	dbUser     string
	dbPassword string
	dbName     string
	dbSslmode  string
	dbPath     string

	cards      int
	guesses    int
	blacks     int
	codeLength int
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	return c.boardConfig().Validate()
}

func (c *Config) boardConfig() game.Config {
	return game.Config{
		CardsPerGame: c.cards,
		GuessAmount:  c.guesses,
		BlackAmount:  c.blacks,
		CodeLength:   c.codeLength,
	}
}

func (c *Config) databaseConfig() database.Config {
	return database.Config{
		Driver:   c.dbDriver,
		Host:     c.dbHost,
		Port:     c.dbPort,
		User:     c.dbUser,
		Password: c.dbPassword,
		Dbname:   c.dbName,
		Sslmode:  c.dbSslmode,
		Path:     c.dbPath,
	}
}

func (c *Config) logger() *logrus.Logger {
	log := logrus.New()
	if c.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func (c *Config) openDatabase() (*server.Server, error) {
	log := c.logger()
	db, derr := database.Open(c.databaseConfig())
	if derr != nil {
		return nil, derr
	}
	if derr := database.Automigrate(db); derr != nil {
		return nil, derr
	}
	log.Info("connected to database")
	return server.New(db, c.boardConfig(), c.baseURL, c.tokenSecret, log), nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CODEBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "codeboard",
		Short:         "A shared word board for guessing games, with live sync between players.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the board server.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			srv, err := cfg.openDatabase()
			if err != nil {
				return err
			}
			return srv.Connect(fmt.Sprintf("%s:%d", cfg.bind, cfg.port))
		},
	}

	loadCmd := &cobra.Command{
		Use:   "load tag file...",
		Short: "Load word list files into the phrase catalog under a tag.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := cfg.openDatabase()
			if err != nil {
				return err
			}
			return loadPhrases(srv, args[0], args[1:])
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: CODEBOARD_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: CODEBOARD_PORT)")
	fs.StringVar(&cfg.baseURL, "base-url", "http://localhost:8080", "public URL used in share links (env: CODEBOARD_BASE_URL)")
	fs.StringVar(&cfg.tokenSecret, "token-secret", "", "signing secret for participant tokens, random when empty (env: CODEBOARD_TOKEN_SECRET)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: CODEBOARD_VERBOSE)")

	fs.StringVar(&cfg.dbDriver, "db-driver", "postgres", "database driver, postgres or sqlite (env: CODEBOARD_DB_DRIVER)")
	fs.StringVar(&cfg.dbHost, "db-host", "localhost", "database host (env: CODEBOARD_DB_HOST)")
	fs.IntVar(&cfg.dbPort, "db-port", 5432, "database port (env: CODEBOARD_DB_PORT)")
	fs.StringVar(&cfg.dbUser, "db-user", "codeboard", "database user (env: CODEBOARD_DB_USER)")
	fs.StringVar(&cfg.dbPassword, "db-password", "", "database password (env: CODEBOARD_DB_PASSWORD)")
	fs.StringVar(&cfg.dbName, "db-name", "codeboard", "database name (env: CODEBOARD_DB_NAME)")
	fs.StringVar(&cfg.dbSslmode, "db-sslmode", "disable", "database ssl mode (env: CODEBOARD_DB_SSLMODE)")
	fs.StringVar(&cfg.dbPath, "db-path", "codeboard.db", "database file for the sqlite driver (env: CODEBOARD_DB_PATH)")

	fs.IntVar(&cfg.cards, "cards", game.DefaultCardsPerGame, "cards per board (env: CODEBOARD_CARDS)")
	fs.IntVar(&cfg.guesses, "guesses", game.DefaultGuessAmount, "cards per team, the first team gets one more (env: CODEBOARD_GUESSES)")
	fs.IntVar(&cfg.blacks, "blacks", game.DefaultBlackAmount, "black cards per board (env: CODEBOARD_BLACKS)")
	fs.IntVar(&cfg.codeLength, "code-length", game.DefaultCodeLength, "length of generated game codes (env: CODEBOARD_CODE_LENGTH)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(serveCmd, loadCmd)
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("codeboard v{{.Version}}\n")

	return cmd
}

// loadPhrases reads one phrase per line from each file and appends them
// to the catalog under the tag. Blank lines are skipped, duplicates are
// merged.
func loadPhrases(srv *server.Server, tag string, files []string) error {
	var phrases []string
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				phrases = append(phrases, line)
			}
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return err
		}
	}
	if derr := database.AddPhrases(srv.DB, tag, phrases); derr != nil {
		return derr
	}
	srv.Log.WithFields(logrus.Fields{
		"tag":     tag,
		"phrases": len(phrases),
	}).Info("loaded phrases")
	return nil
}
