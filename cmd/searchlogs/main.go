// cmd/searchlogs/main.go
//
// searchlogs scans every stored crash log and prints the _id of each one
// whose JSON text contains all of the given terms.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	logstore "github.com/dalemusser/stratalog/internal/app/store/logs"
	"github.com/dalemusser/stratalog/internal/app/system/cursor"
	"github.com/dalemusser/stratalog/internal/app/system/logquery"
	"github.com/dalemusser/stratalog/internal/app/system/schema"
	"github.com/dalemusser/stratalog/internal/app/system/search"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const envPrefix = "STRATALOG"

var errMissingTerm = errors.New("Missing search term")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(viper.New(), connect, os.Stdout)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connectFunc opens the database the scan reads from.
type connectFunc func(ctx context.Context, uri, database string) (*mongo.Database, func(), error)

func connect(ctx context.Context, uri, database string) (*mongo.Database, func(), error) {
	if err := wafflemongo.ValidateURI(uri); err != nil {
		return nil, nil, fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	client, err := wafflemongo.ConnectWithPool(ctx, uri, database, wafflemongo.DefaultPoolConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	return client.Database(database), func() { _ = client.Disconnect(context.Background()) }, nil
}

func newRootCmd(v *viper.Viper, open connectFunc, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "searchlogs term [term...]",
		Short: "Find stored crash logs containing every term",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errMissingTerm
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := open(cmd.Context(), v.GetString("mongo_uri"), v.GetString("mongo_database"))
			if err != nil {
				return err
			}
			defer closeDB()
			store := logstore.NewNamed(db, v.GetString("collection"))
			return scan(cmd.Context(), store.Scanner(logquery.ScanQuery(v.GetInt64("page_size"))), args, out)
		},
	}

	flags := cmd.Flags()
	flags.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	flags.String("mongo-database", "stratalog", "MongoDB database name")
	flags.String("collection", schema.LogsRecords, "Collection to scan")
	flags.Int64("page-size", logquery.DefaultScanPageSize, "Documents fetched per page")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, name := range []string{"mongo-uri", "mongo-database", "collection", "page-size"} {
		_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}
	return cmd
}

// scan prints every page's range and every match, then "done".
func scan(ctx context.Context, fetch cursor.PageFunc[bson.Raw], terms []string, out io.Writer) error {
	if _, err := search.Run(ctx, fetch, terms, printer{out: out}); err != nil {
		return err
	}
	fmt.Fprintln(out, "done")
	return nil
}

// printer writes scan progress in the tool's line format.
type printer struct {
	out io.Writer
}

func (p printer) Found(id string) {
	fmt.Fprintf(p.out, "Search items found in %s\n", id)
}

func (p printer) Searched(first, last string) {
	fmt.Fprintf(p.out, "Searched %s %s\n", first, last)
}
