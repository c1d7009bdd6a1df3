/*
Etymologd starts an Etymolog workbench server and begins listening for
HTTP requests.

Usage:

	etymologd [flags]
	etymologd [flags] -l [[ADDRESS]:PORT]

By default, it listens on localhost:8080. This can be changed with the
--listen/-l flag or the ETYMOLOG_LISTEN_ADDRESS environment variable.

The flags are:

	-v, --version
		Give the current version of Etymolog and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. Defaults to ETYMOLOG_LISTEN_ADDRESS, and if that is unset,
		to localhost:8080.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of the
		following: inmem, sqlite. inmem has no further params. sqlite
		needs the path to the data directory, e.g. sqlite:path/to/db_dir.
		Defaults to ETYMOLOG_DATABASE, and if that is unset, to inmem.

	-c, --config PATH
		Load additional settings from a TOML config file. CLI flags and
		environment variables take precedence over values in the file.
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	etymolog "github.com/etymolog/etymolog"
	"github.com/etymolog/etymolog/internal/version"
	"github.com/etymolog/etymolog/server/api"
	"github.com/etymolog/etymolog/server/dao"
	"github.com/etymolog/etymolog/server/dao/inmem"
	"github.com/etymolog/etymolog/server/dao/sqlite"
)

const (
	EnvListen = "ETYMOLOG_LISTEN_ADDRESS"
	EnvDB     = "ETYMOLOG_DATABASE"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of Etymolog and then exit.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
	flagConfig  = pflag.StringP("config", "c", "", "Load additional settings from a TOML config file.")
)

// fileConfig is the shape of the optional TOML config file; CLI flags
// and environment variables override anything set here.
type fileConfig struct {
	Listen string `toml:"listen"`
	DB     string `toml:"db"`
}

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("etymologd (Etymolog v%s)\n", version.Current)
		return
	}

	if args := pflag.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	var fileCfg fileConfig
	if *flagConfig != "" {
		if _, err := toml.DecodeFile(*flagConfig, &fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "could not read config file: %s\n", err.Error())
			os.Exit(1)
		}
	}

	listenAddr := fileCfg.Listen
	if v := os.Getenv(EnvListen); v != "" {
		listenAddr = v
	}
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr == "" {
		listenAddr = "localhost:8080"
	}

	addr, port, err := splitListenAddr(listenAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}

	dbConnStr := fileCfg.DB
	if v := os.Getenv(EnvDB); v != "" {
		dbConnStr = v
	}
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}

	store, err := openStore(dbConnStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open database: %s\n", err.Error())
		os.Exit(1)
	}

	engine := etymolog.NewEngine(store)
	if err := <-engine.Init(context.Background()); err != nil {
		log.Fatalf("FATAL could not initialize engine: %s", err.Error())
	}
	log.Printf("DEBUG Engine initialized")

	a := &api.API{Engine: engine, UnauthDelay: 500 * time.Millisecond}

	bindAddr := fmt.Sprintf("%s:%d", addr, port)
	log.Printf("INFO  Starting Etymolog server v%s on %s...", version.Current, bindAddr)
	if err := http.ListenAndServe(bindAddr, a.Router()); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}

func splitListenAddr(listenAddr string) (addr string, port int, err error) {
	parts := strings.SplitN(listenAddr, ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("listen address is not in ADDRESS:PORT or :PORT format")
	}
	port, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("%q is not a valid port number", parts[1])
	}
	return parts[0], port, nil
}

func openStore(connStr string) (dao.Store, error) {
	if connStr == "" {
		return inmem.NewDatastore(), nil
	}
	parts := strings.SplitN(connStr, ":", 2)
	switch strings.ToLower(parts[0]) {
	case "inmem":
		return inmem.NewDatastore(), nil
	case "sqlite":
		if len(parts) != 2 {
			return nil, fmt.Errorf("sqlite driver requires a data directory, e.g. sqlite:path/to/db_dir")
		}
		if err := os.MkdirAll(parts[1], 0770); err != nil {
			return nil, fmt.Errorf("could not build data directory: %w", err)
		}
		return sqlite.NewDatastore(parts[1])
	default:
		return nil, fmt.Errorf("unsupported DB engine: %q", parts[0])
	}
}
