package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/promptlens/promptlens/internal/config"
	pdiff "github.com/promptlens/promptlens/internal/diff"
	"github.com/promptlens/promptlens/internal/history"
	"github.com/promptlens/promptlens/internal/llm"
	"github.com/promptlens/promptlens/internal/runner"
	"github.com/promptlens/promptlens/internal/session"
	"github.com/promptlens/promptlens/internal/snapshot"
	"github.com/promptlens/promptlens/internal/store"
	"github.com/promptlens/promptlens/internal/textdiff"
)

var (
	saveName     string
	sessionPath  string
	diffJSON     bool
	diffFull     bool
	diffMode     string
	runInput     string
	runTimeout   int
	historyLimit int
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new snapshot store",
	Long:  "Create a .plens/ directory in the current working directory holding the snapshot database and run history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		root, err := store.Init(dir)
		if err != nil {
			return err
		}
		fmt.Printf("Initialized snapshot store at %s\n", root)
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <session.json>",
	Short: "Capture a snapshot from a session file and persist it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		sess, err := session.Load(args[0])
		if err != nil {
			return err
		}
		snap := snapshot.Capture(sess)
		if snap == nil {
			return fmt.Errorf("session unavailable, nothing to capture")
		}
		if saveName != "" {
			snap.Name = saveName
		}

		id, err := st.Add(snap)
		if err != nil {
			return err
		}
		fmt.Printf("Saved snapshot %d: %s\n", id, snap.Name)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		snaps, err := st.GetAll()
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Println("No snapshots stored.")
			return nil
		}
		fmt.Printf("%-5s %-40s %-20s %8s  %s\n", "ID", "NAME", "PRESET", "ENABLED", "CAPTURED")
		for _, s := range snaps {
			fmt.Printf("%-5d %-40s %-20s %8d  %s\n",
				s.ID, s.Name, s.PresetName, s.EnabledCount,
				time.UnixMilli(s.Timestamp).Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Inspect a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := getByID(st, args[0])
		if err != nil {
			return err
		}
		fmt.Print(snapshot.Format(snap))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := st.Delete(id); err != nil {
			return err
		}
		fmt.Printf("Deleted snapshot %d\n", id)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <id> <file>",
	Short: "Export a stored snapshot to a JSON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := getByID(st, args[0])
		if err != nil {
			return err
		}
		if err := snapshot.WriteFile(args[1], snap); err != nil {
			return err
		}
		fmt.Printf("Exported snapshot %d to %s\n", snap.ID, args[1])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a snapshot from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := snapshot.ReadFile(args[0])
		if err != nil {
			return err
		}
		id, err := st.Add(snap)
		if err != nil {
			return err
		}
		fmt.Printf("Imported snapshot %d: %s\n", id, snap.Name)
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <a> <b>",
	Short: "Compare two snapshots",
	Long: `Compare two snapshots fragment by fragment. Arguments are store ids, or
"current" to capture the live state from --session. Content changes expand to
a line/word-level comparison with --full.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, root, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		if diffMode == "" {
			diffMode = cfg.Diff.Mode
		}
		mode, err := textdiff.ParseMode(diffMode)
		if err != nil {
			return err
		}

		a, err := resolveSnapshot(st, args[0])
		if err != nil {
			return err
		}
		b, err := resolveSnapshot(st, args[1])
		if err != nil {
			return err
		}

		report := pdiff.Diff(a, b)
		if diffJSON {
			data, err := report.JSON()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		r := pdiff.Renderer{
			Color: isatty.IsTerminal(os.Stdout.Fd()),
			Full:  diffFull,
			Mode:  mode,
		}
		fmt.Print(r.Render(report))
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Test-run a snapshot against a live session",
	Long: `Substitute the snapshot into the session loaded from --session, run one
quiet generation, stream the output, and restore the prior session state.
The session file is never modified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionPath == "" {
			return fmt.Errorf("--session is required")
		}

		st, root, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		cfg, err := config.Load(root)
		if err != nil {
			return err
		}

		snap, err := getByID(st, args[0])
		if err != nil {
			return err
		}
		sess, err := session.Load(sessionPath)
		if err != nil {
			return err
		}

		gen, err := llm.New(llm.Options{
			Model:     cfg.Generation.Model,
			BaseURL:   cfg.Generation.BaseURL,
			APIKeyEnv: cfg.Generation.APIKeyEnv,
			Responder: cfg.Generation.Responder,
		}, sess)
		if err != nil {
			return err
		}

		r := runner.New(sess, sess, gen)
		r.UserName = cfg.Generation.UserName
		timeout := cfg.Generation.TimeoutSeconds
		if cmd.Flags().Changed("timeout") {
			timeout = runTimeout
		}
		if timeout > 0 {
			r.Timeout = time.Duration(timeout) * time.Second
		}

		// Partial callbacks carry the accumulated text; print only the tail
		// not yet written.
		printed := 0
		sink := func(text string) {
			if len(text) > printed {
				fmt.Print(text[printed:])
				printed = len(text)
			}
		}

		started := time.Now()
		out := r.Run(context.Background(), snap, runInput, sink)
		if len(out) > printed {
			fmt.Print(out[printed:])
		}
		fmt.Println()

		rec := history.RunRecord{
			SnapshotID:   snap.ID,
			SnapshotName: snap.Name,
			Input:        runInput,
			Output:       out,
			StartedAt:    started,
			EndedAt:      time.Now(),
		}
		if err := history.Record(root, &rec); err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past substitution runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := store.Discover()
		if err != nil {
			return err
		}

		runs, err := history.List(root, historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		for _, r := range runs {
			status := "ok"
			if r.Failed {
				status = "failed"
			}
			fmt.Printf("%s  %-6s %6dms  %s\n",
				r.EndedAt.Format("2006-01-02 15:04:05"), status, r.DurationMS, r.SnapshotName)
		}
		return nil
	},
}

func openStore() (*store.Store, string, error) {
	root, err := store.Discover()
	if err != nil {
		return nil, "", err
	}
	st, err := store.Open(root)
	if err != nil {
		return nil, "", err
	}
	return st, root, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snapshot id %q", arg)
	}
	return id, nil
}

func getByID(st *store.Store, arg string) (*snapshot.Snapshot, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, err
	}
	return st.Get(id)
}

// resolveSnapshot turns a diff argument into a snapshot: a store id, or
// "current" captured live from the --session file.
func resolveSnapshot(st *store.Store, arg string) (*snapshot.Snapshot, error) {
	if arg == "current" {
		if sessionPath == "" {
			return nil, fmt.Errorf("'current' requires --session")
		}
		sess, err := session.Load(sessionPath)
		if err != nil {
			return nil, err
		}
		snap := snapshot.Capture(sess)
		if snap == nil {
			return nil, fmt.Errorf("session unavailable, nothing to capture")
		}
		return snap, nil
	}
	return getByID(st, arg)
}

func init() {
	saveCmd.Flags().StringVar(&saveName, "name", "", "snapshot name (default: preset + capture time)")

	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "output the report as JSON")
	diffCmd.Flags().BoolVar(&diffFull, "full", false, "expand content changes into line/word diffs")
	diffCmd.Flags().StringVar(&diffMode, "mode", "", "text diff algorithm: positional or edit-distance")
	diffCmd.Flags().StringVar(&sessionPath, "session", "", "session file for 'current'")

	runCmd.Flags().StringVar(&sessionPath, "session", "", "session file to substitute into")
	runCmd.Flags().StringVar(&runInput, "input", "", "test input appended as a user message")
	runCmd.Flags().IntVar(&runTimeout, "timeout", 0, "generation timeout in seconds (0 = config default)")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list (0 = all)")

	rootCmd.AddCommand(initCmd, saveCmd, listCmd, showCmd, deleteCmd,
		exportCmd, importCmd, diffCmd, runCmd, historyCmd)
}
