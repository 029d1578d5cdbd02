// Package cli is the command line surface for managing index stores.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vs74/pagetree/pagefile"
	"github.com/vs74/pagetree/server"
	"github.com/vs74/pagetree/store"
)

// RootCmd is the root command for the CLI.
var RootCmd = &cobra.Command{
	Use:   "pagetree",
	Short: "CLI for managing page-persisted tree index stores",
	Long:  "A command line interface for creating index stores, managing trees inside them, and querying their contents.",
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %v\n", err)
		os.Exit(1)
	}
}

func basePath(storeID string) string {
	return filepath.Join(".", "files", storeID)
}

func loadStore(storeID string) (*store.Store, error) {
	s, err := store.LoadStore(basePath(storeID))
	if err != nil {
		return nil, fmt.Errorf("loading store '%s': %w", storeID, err)
	}
	return s, nil
}

var createStoreCmd = &cobra.Command{
	Use:   "create-store",
	Short: "Create a new index store",
	RunE: func(cmd *cobra.Command, args []string) error {
		storeID := store.NewStoreID()
		s, err := store.NewStore(basePath(storeID), storeID)
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
		if err := s.Close(); err != nil {
			return fmt.Errorf("closing store: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Store ID: %s\n", storeID)
		return nil
	},
}

var createTreeCmd = &cobra.Command{
	Use:   "create-tree [storeID] [name] [pageSize]",
	Short: "Create a new tree in the specified store",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeID, name := args[0], args[1]
		pageSize := pagefile.DefaultPageSize
		if len(args) == 3 {
			var err error
			pageSize, err = strconv.Atoi(args[2])
			if err != nil || pageSize < 256 {
				return fmt.Errorf("invalid page size '%s', must be an integer >= 256", args[2])
			}
		}

		s, err := loadStore(storeID)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.CreateTree(name, pageSize); err != nil {
			return fmt.Errorf("creating tree: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Tree '%s' created in store '%s' (page size %d).\n", name, storeID, pageSize)
		return nil
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert [storeID] [tree] [key] [value]",
	Short: "Insert a key-value pair into a tree",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeID, name, key, value := args[0], args[1], args[2], args[3]

		s, err := loadStore(storeID)
		if err != nil {
			return err
		}
		defer s.Close()

		kt, err := s.GetTree(name)
		if err != nil {
			return err
		}
		if err := kt.Insert(key, value); err != nil {
			return fmt.Errorf("inserting key '%s': %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Inserted key '%s' into tree '%s'.\n", key, name)
		return nil
	},
}

var findCmd = &cobra.Command{
	Use:   "find [storeID] [tree] [key]",
	Short: "Find a key in a tree",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeID, name, key := args[0], args[1], args[2]

		s, err := loadStore(storeID)
		if err != nil {
			return err
		}
		defer s.Close()

		kt, err := s.GetTree(name)
		if err != nil {
			return err
		}
		value, found, err := kt.Find(key)
		if err != nil {
			return fmt.Errorf("finding key '%s': %w", key, err)
		}
		if found {
			fmt.Fprintf(cmd.OutOrStdout(), "Found key '%s' => %s\n", key, value)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Key not found: %s\n", key)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [storeID] [tree] [key]",
	Short: "Delete a key from a tree",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeID, name, key := args[0], args[1], args[2]

		s, err := loadStore(storeID)
		if err != nil {
			return err
		}
		defer s.Close()

		kt, err := s.GetTree(name)
		if err != nil {
			return err
		}
		deleted, err := kt.Delete(key)
		if err != nil {
			return fmt.Errorf("deleting key '%s': %w", key, err)
		}
		if deleted {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted key '%s' from tree '%s'.\n", key, name)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Key not found: %s\n", key)
		}
		return nil
	},
}

var rangeCmd = &cobra.Command{
	Use:   "range [storeID] [tree] [lo] [hi]",
	Short: "List all pairs with lo <= key <= hi",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeID, name, lo, hi := args[0], args[1], args[2], args[3]

		s, err := loadStore(storeID)
		if err != nil {
			return err
		}
		defer s.Close()

		kt, err := s.GetTree(name)
		if err != nil {
			return err
		}
		pairs, err := kt.Range(lo, hi)
		if err != nil {
			return fmt.Errorf("range scan: %w", err)
		}
		for _, kv := range pairs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s => %s\n", kv.Key, kv.Value)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d pairs.\n", len(pairs))
		return nil
	},
}

var nearestCmd = &cobra.Command{
	Use:   "nearest [storeID] [tree] [query] [k]",
	Short: "Find the k keys nearest to the query, including boundary ties",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeID, name, query := args[0], args[1], args[2]
		k, err := strconv.Atoi(args[3])
		if err != nil || k < 1 {
			return fmt.Errorf("invalid k '%s', must be an integer >= 1", args[3])
		}

		s, err := loadStore(storeID)
		if err != nil {
			return err
		}
		defer s.Close()

		kt, err := s.GetTree(name)
		if err != nil {
			return err
		}
		results, err := kt.Nearest(query, k)
		if err != nil {
			return fmt.Errorf("nearest search: %w", err)
		}
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "%s => %s (distance %d)\n", r.Key, r.Value, r.Distance)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [storeID] [tree]",
	Short: "Show page access statistics for a tree",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeID, name := args[0], args[1]

		s, err := loadStore(storeID)
		if err != nil {
			return err
		}
		defer s.Close()

		kt, err := s.GetTree(name)
		if err != nil {
			return err
		}
		n, err := kt.Len()
		if err != nil {
			return err
		}
		stats := kt.Statistics()
		fmt.Fprintf(cmd.OutOrStdout(), "pairs:  %d\n", n)
		fmt.Fprintf(cmd.OutOrStdout(), "reads:  %d\n", stats.ReadOperations())
		fmt.Fprintf(cmd.OutOrStdout(), "writes: %d\n", stats.WriteOperations())
		return nil
	},
}

var headerCmd = &cobra.Command{
	Use:   "header [storeID] [tree]",
	Short: "Show the persisted header parameters of a tree",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeID, name := args[0], args[1]

		s, err := loadStore(storeID)
		if err != nil {
			return err
		}
		defer s.Close()

		kt, err := s.GetTree(name)
		if err != nil {
			return err
		}
		caps := kt.Capacities()
		fmt.Fprintf(cmd.OutOrStdout(), "page size:     %d\n", kt.PageSize())
		fmt.Fprintf(cmd.OutOrStdout(), "dir capacity:  %d\n", caps.DirCapacity)
		fmt.Fprintf(cmd.OutOrStdout(), "leaf capacity: %d\n", caps.LeafCapacity)
		fmt.Fprintf(cmd.OutOrStdout(), "dir minimum:   %d\n", caps.DirMinimum)
		fmt.Fprintf(cmd.OutOrStdout(), "leaf minimum:  %d\n", caps.LeafMinimum)
		return nil
	},
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server over the store root",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := zap.NewProduction()
		if err != nil {
			return err
		}
		defer log.Sync()
		return server.Run(serveAddr, log)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":3000", "listen address")

	RootCmd.AddCommand(createStoreCmd)
	RootCmd.AddCommand(createTreeCmd)
	RootCmd.AddCommand(insertCmd)
	RootCmd.AddCommand(findCmd)
	RootCmd.AddCommand(deleteCmd)
	RootCmd.AddCommand(rangeCmd)
	RootCmd.AddCommand(nearestCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(headerCmd)
	RootCmd.AddCommand(serveCmd)
}
