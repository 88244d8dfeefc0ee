// trackctl is a thin command-line front-end over the tracker client: it
// syncs collections, runs the project queries and manages the locally
// persisted identity/theme state.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stagetrack-io/stagetrack/client"
)

var (
	serverURL string
	statePath string
)

func main() {
	root := &cobra.Command{
		Use:           "trackctl",
		Short:         "Project tracker command-line client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "tracker gateway base URL")
	root.PersistentFlags().StringVar(&statePath, "state", "", "session state file (defaults to the user config dir)")

	root.AddCommand(
		syncCmd(),
		fetchCmd(),
		completedCmd(),
		inProgressCmd(),
		evaluateCmd(),
		loginCmd(),
		logoutCmd(),
		themeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func gateway() *client.Client {
	return client.New(serverURL, 30*time.Second, zap.NewNop())
}

func stateFile() (*client.StateFile, error) {
	path := statePath
	if path == "" {
		var err error
		path, err = client.DefaultStatePath()
		if err != nil {
			return nil, err
		}
	}
	return client.NewStateFile(path), nil
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <key> <file.json>",
		Short: "Replace one collection on the server with the records in a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			if err := gateway().Sync(context.Background(), args[0], raw); err != nil {
				return err
			}
			fmt.Printf("synced %s\n", args[0])
			return nil
		},
	}
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the whole-store snapshot and print per-collection record counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := gateway().FetchAll(context.Background())
			if err != nil {
				return err
			}
			for key, raw := range doc {
				var records []json.RawMessage
				if err := json.Unmarshal(raw, &records); err != nil {
					continue
				}
				fmt.Printf("%-16s %d\n", key, len(records))
			}
			return nil
		},
	}
}

func completedCmd() *cobra.Command {
	var month, year int
	cmd := &cobra.Command{
		Use:   "completed",
		Short: "List completed projects, optionally filtered by month/year",
		RunE: func(cmd *cobra.Command, args []string) error {
			var m, y *int
			if cmd.Flags().Changed("month") {
				m = &month
			}
			if cmd.Flags().Changed("year") {
				y = &year
			}
			out, err := gateway().Completed(context.Background(), m, y)
			if err != nil {
				return err
			}
			fmt.Printf("%d completed project(s)\n", out.Count)
			for _, p := range out.Projects {
				completed := ""
				if p.CompletionDate != nil {
					completed = *p.CompletionDate
				}
				fmt.Printf("  %-24s stages=%d progress=%d%% completed=%s\n", p.Name, p.StageCount, p.TotalProgress, completed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&month, "month", 0, "completion month (1-12)")
	cmd.Flags().IntVar(&year, "year", 0, "completion year")
	return cmd
}

func inProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "in-progress",
		Short: "List projects that are not completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := gateway().InProgress(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("%d project(s) in progress\n", out.Count)
			for _, p := range out.Projects {
				fmt.Printf("  %-24s stages=%d progress=%d%%\n", p.Name, p.StageCount, p.TotalProgress)
			}
			return nil
		},
	}
}

func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Force a derived-state recomputation on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := gateway().Evaluate(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("evaluated, updated=%v\n", out.Updated)
			for _, p := range out.Projects {
				fmt.Printf("  %-24s completed=%v\n", p.Name, p.Completed)
			}
			return nil
		},
	}
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <user-id> <username>",
		Short: "Record the logged-in identity locally",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := stateFile()
			if err != nil {
				return err
			}
			prev, err := sf.Load()
			if err != nil {
				return err
			}
			theme := ""
			if prev != nil {
				theme = prev.Theme
			}
			return sf.Save(&client.SessionState{UserID: args[0], Username: args[1], Theme: theme})
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the locally recorded identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := stateFile()
			if err != nil {
				return err
			}
			return sf.Clear()
		},
	}
}

func themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme <name>",
		Short: "Persist the theme preference locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := stateFile()
			if err != nil {
				return err
			}
			st, err := sf.Load()
			if err != nil {
				return err
			}
			if st == nil {
				st = &client.SessionState{}
			}
			st.Theme = args[0]
			return sf.Save(st)
		},
	}
}
