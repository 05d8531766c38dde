package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/localcart"
	"storefront/internal/logger"
	"storefront/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// openStore returns the configured cart store and a function releasing it
func openStore(cfg *config.Config) (localcart.Store, func(), error) {
	if cfg.Storefront.Store == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return localcart.NewRedisStore(client, "storefront"), func() { client.Close() }, nil
	}

	store, err := localcart.NewFileStore(cfg.Storefront.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code
func run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.String("data-dir", "", "directory holding the cart and session")
	flags.String("catalog", "", "catalog URL or file")
	flags.String("store", "", `cart store: "file" or "redis"`)
	flags.String("env", "", "environment (production logs JSON)")
	category := flags.String("category", catalog.AllCategories, "category shown by products")
	yes := flags.BoolP("yes", "y", false, "confirm checkout without asking")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		fmt.Fprintln(stderr, "\nflags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	cfg := config.LoadWithFlags(flags)

	log, err := logger.NewCLI(cfg.Server.Env)
	if err != nil {
		fmt.Fprintln(stderr, "failed to initialize logger:", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Error("Failed to open store", zap.Error(err), zap.String("store", cfg.Storefront.Store))
		return 1
	}
	defer closeStore()

	ctrl := localcart.NewController(store, log)
	a := newApp(ctrl, session.NewManager(store, log), stdin, stdout)
	a.category = *category
	a.yes = *yes

	command, args := flags.Arg(0), flags.Args()[1:]
	if needsCatalog(command) {
		fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_ = ctrl.LoadCatalog(fetchCtx, catalog.NewFetcher(http.DefaultClient), cfg.Storefront.CatalogSource)
		cancel()
	}

	ctrl.Load(ctx)
	ctrl.OnRender(a.render)

	err = a.run(ctx, command, args)

	for _, n := range ctrl.Notices() {
		fmt.Fprintf(stderr, "[%s] %s\n", n.Level, n.Message)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		flags.Usage()
		return 2
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}
