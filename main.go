package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/config"
	"github.com/inkdesk/inkdesk/importer"
	"github.com/inkdesk/inkdesk/log"
	"github.com/inkdesk/inkdesk/server"
	"github.com/inkdesk/inkdesk/store"
	"github.com/inkdesk/inkdesk/store/db"
	syncpkg "github.com/inkdesk/inkdesk/sync"
	"github.com/inkdesk/inkdesk/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	host       string
	port       int
	dataDir    string
	apiBaseURL string
	username   string
	password   string
	publisher  bool

	rootCmd = &cobra.Command{
		Use:   "inkdesk",
		Short: "InkDesk keeps a local book catalogue in sync with the publishing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s, err := openStore(ctx)
			if err != nil {
				return err
			}

			srv, err := server.NewServer(ctx, s)
			if err != nil {
				log.Error("Error creating server", zap.Error(err))
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-stop
				srv.Shutdown(ctx)
				cancel()
			}()

			return srv.Start()
		},
	}

	pullCmd = &cobra.Command{
		Use:   "pull",
		Short: "Download the remote catalogue into the local library",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			syncer, _, err := buildSync(s)
			if err != nil {
				return err
			}
			asPublisher := syncer.StoredRole()
			if cmd.Flags().Changed("publisher") {
				asPublisher = publisher
			}
			result, err := syncer.Pull(asPublisher)
			if err != nil {
				return err
			}
			fmt.Printf("pull finished: authors %s, books %s\n",
				result.Authors.Summary(), result.Books.Summary())
			return nil
		},
	}

	pushCmd = &cobra.Command{
		Use:   "push",
		Short: "Upload local authors and books to the catalogue service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			_, pusher, err := buildSync(s)
			if err != nil {
				return err
			}
			result, err := pusher.Push()
			if err != nil {
				return err
			}
			fmt.Printf("push finished: authors %s, books %s\n",
				result.Authors.Summary(), result.Books.Summary())
			return nil
		},
	}

	importCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Import books from a CSV or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			apiClient, err := client.NewClient(config.Opts.APIBaseURL)
			if err != nil {
				return err
			}
			syncer := newSynchronizer(s, apiClient)
			imp := importer.NewImporter(s, syncer.Genres(), log.Logger)

			path := args[0]
			var result *syncpkg.BatchResult
			if isJSONFile(path) {
				result, err = imp.ImportJSON(path)
			} else {
				result, err = imp.ImportCSV(path)
			}
			if err != nil {
				return err
			}
			fmt.Printf("import finished: %s\n", result.Summary())
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.GetCurrentVersion())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "address the local API listens on")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "port the local API listens on")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api", "", "catalogue service origin")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "catalogue account username")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "catalogue account password")
	pullCmd.Flags().BoolVar(&publisher, "publisher", false, "pull the publisher catalogue instead of the author one")

	rootCmd.AddCommand(pullCmd, pushCmd, importCmd, versionCmd)

	cobra.OnInitialize(func() {
		if _, err := config.GetConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		if configFile != "" {
			if _, err := config.ParseFile(configFile); err != nil {
				fmt.Fprintf(os.Stderr, "failed to parse config file: %v\n", err)
				os.Exit(1)
			}
		}
		if host != "" {
			config.Opts.Host = host
		}
		if port != 0 {
			config.Opts.Port = port
		}
		if dataDir != "" {
			config.Opts.Data = dataDir
		}
		if apiBaseURL != "" {
			config.Opts.APIBaseURL = apiBaseURL
		}
		log.Logger = log.NewLogger()
	})
}

func openStore(ctx context.Context) (*store.Store, error) {
	database, err := db.NewDB(config.Opts.DSN)
	if err != nil {
		log.Error("Error connecting to database", zap.Error(err))
		return nil, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		log.Error("Error migrating database", zap.Error(err))
		closeDB(database)
		return nil, err
	}

	s := store.NewStore(database)
	if err := s.Ping(); err != nil {
		log.Error("Error pinging database", zap.Error(err))
		closeDB(database)
		return nil, err
	}
	return s, nil
}

func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
}

func newSynchronizer(s *store.Store, apiClient *client.Client) *syncpkg.Synchronizer {
	return syncpkg.NewSynchronizer(
		s,
		apiClient,
		config.Opts.Data,
		time.Duration(config.Opts.DownloadTimeout)*time.Second,
		log.Logger,
	)
}

// buildSync wires a logged-in client with the pull and push sides for the
// one-shot commands.
func buildSync(s *store.Store) (*syncpkg.Synchronizer, *syncpkg.Pusher, error) {
	if username == "" || password == "" {
		return nil, nil, fmt.Errorf("username and password are required, use -u and -p")
	}

	apiClient, err := client.NewClient(config.Opts.APIBaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := apiClient.Login(username, password); err != nil {
		return nil, nil, err
	}

	syncer := newSynchronizer(s, apiClient)
	pusher := syncpkg.NewPusher(s, apiClient, syncer, log.Logger)
	return syncer, pusher, nil
}

func isJSONFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".json")
}

func main() {
	defer log.Logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
