// cmd/keel/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keel/internal/config"
	"keel/internal/journal"
	"keel/internal/logging"
	"keel/internal/repo"
	"keel/internal/watch"
)

var (
	cfgPath    string
	dirFlag    string
	authorFlag string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "keel",
	Short: "Keel turns a git working directory into atomic, auditable operations",
	Long: `Keel is a facade over a git working directory. File writes, deletes and
renames become single commits; batches become all-or-nothing transactions
with rollback; every mutation is recorded in an audit journal.`,
}

// openRepo builds a Repository from the config file and flags, walking
// upward from --dir (or the working directory) to find the root.
func openRepo() (*repo.Repository, *journal.Store, error) {
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	lg, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger = lg.Logger

	fileMode, dirMode, err := cfg.Modes()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing modes: %w", err)
	}

	dir := dirFlag
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	author := cfg.Repository.Author
	if authorFlag != "" {
		author = authorFlag
	}

	opts := repo.Options{
		FileMode: fileMode,
		DirMode:  dirMode,
		Author:   author,
		Logger:   lg.ForComponent("repo"),
	}

	var store *journal.Store
	if cfg.Journal.Enabled {
		root, err := repo.FindRoot(dir)
		if err == nil {
			jpath := cfg.Journal.Path
			if jpath == "" {
				jpath = filepath.Join(root, ".git", "keel-journal")
			}
			store, err = journal.Open(jpath, lg.ForComponent("journal"))
			if err != nil {
				return nil, nil, fmt.Errorf("opening journal: %w", err)
			}
			opts.Auditor = store
		}
	}

	r, err := repo.Open(dir, opts)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}
	return r, store, nil
}

func closeJournal(store *journal.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "closing journal:", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "C", "", "repository directory (default: cwd)")
	rootCmd.PersistentFlags().StringVar(&authorFlag, "author", "", "author identity for commits")

	var initCmd = &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			r, err := repo.Init(dir, repo.Options{Author: authorFlag})
			if err != nil {
				return fmt.Errorf("initializing repository: %w", err)
			}

			fmt.Println("Initialized repository in", r.Root())
			return nil
		},
	}

	var writeMsg string
	var writeCmd = &cobra.Command{
		Use:   "write <path> [content]",
		Short: "Write a file and commit it",
		Long:  `Writes the given content (or stdin when omitted) to a file and commits it as one revision.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepo()
			if err != nil {
				return err
			}
			defer closeJournal(store)

			var data []byte
			if len(args) == 2 {
				data = []byte(args[1])
			} else {
				if data, err = io.ReadAll(os.Stdin); err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
			}

			rev, err := r.WriteFile(args[0], data, writeMsg)
			if err != nil {
				return fmt.Errorf("writing file: %w", err)
			}

			fmt.Println(rev)
			return nil
		},
	}
	writeCmd.Flags().StringVarP(&writeMsg, "message", "m", "", "commit message")

	var rmMsg string
	var rmRecursive, rmForce bool
	var rmCmd = &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a file and commit the removal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepo()
			if err != nil {
				return err
			}
			defer closeJournal(store)

			rev, err := r.RemoveFile(args[0], rmMsg, rmRecursive, rmForce)
			if err != nil {
				return fmt.Errorf("removing file: %w", err)
			}

			fmt.Println(rev)
			return nil
		},
	}
	rmCmd.Flags().StringVarP(&rmMsg, "message", "m", "", "commit message")
	rmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "r", false, "remove directories recursively")
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "force removal")

	var mvMsg string
	var mvForce bool
	var mvCmd = &cobra.Command{
		Use:   "mv <from> <to>",
		Short: "Rename a file and commit the rename",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepo()
			if err != nil {
				return err
			}
			defer closeJournal(store)

			rev, err := r.RenameFile(args[0], args[1], mvMsg, mvForce)
			if err != nil {
				return fmt.Errorf("renaming file: %w", err)
			}

			fmt.Println(rev)
			return nil
		},
	}
	mvCmd.Flags().StringVarP(&mvMsg, "message", "m", "", "commit message")
	mvCmd.Flags().BoolVarP(&mvForce, "force", "f", false, "force rename")

	var logLimit, logSkip int
	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show commit history",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepo()
			if err != nil {
				return err
			}
			defer closeJournal(store)

			entries, err := r.Log(logLimit, logSkip)
			if err != nil {
				return fmt.Errorf("reading log: %w", err)
			}

			header := color.New(color.FgCyan)
			for _, entry := range entries {
				lines := strings.SplitN(entry, "\n", 2)
				header.Println(lines[0])
				if len(lines) == 2 {
					fmt.Println(lines[1])
				}
				fmt.Println()
			}
			return nil
		},
	}
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 0, "max commits to show")
	logCmd.Flags().IntVar(&logSkip, "skip", 0, "commits to skip from the tip")

	var showCmd = &cobra.Command{
		Use:   "show <hash>",
		Short: "Show a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepo()
			if err != nil {
				return err
			}
			defer closeJournal(store)

			out, err := r.ShowCommit(args[0])
			if err != nil {
				return fmt.Errorf("showing commit: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}

	var catRef string
	var catCmd = &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file's content at a reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepo()
			if err != nil {
				return err
			}
			defer closeJournal(store)

			out, err := r.ShowFile(args[0], catRef)
			if err != nil {
				return fmt.Errorf("showing file: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
	catCmd.Flags().StringVar(&catRef, "ref", "HEAD", "reference to read from")

	var lsRef string
	var lsCmd = &cobra.Command{
		Use:   "ls [dir]",
		Short: "List tree entries at a reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepo()
			if err != nil {
				return err
			}
			defer closeJournal(store)

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			entries, err := r.ListDirectory(dir, lsRef)
			if err != nil {
				return fmt.Errorf("listing directory: %w", err)
			}

			for _, entry := range entries {
				fmt.Println(entry)
			}
			return nil
		},
	}
	lsCmd.Flags().StringVar(&lsRef, "ref", "HEAD", "reference to list at")

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepo()
			if err != nil {
				return err
			}
			defer closeJournal(store)

			entries, err := r.Status()
			if err != nil {
				return fmt.Errorf("reading status: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println("Working tree clean")
				return nil
			}

			printStatus(entries)
			return nil
		},
	}

	var branchCmd = &cobra.Command{
		Use:   "branch",
		Short: "Show the current branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepo()
			if err != nil {
				return err
			}
			defer closeJournal(store)

			branch, err := r.CurrentBranch()
			if err != nil {
				return fmt.Errorf("resolving branch: %w", err)
			}

			fmt.Println(branch)
			return nil
		},
	}

	var revCmd = &cobra.Command{
		Use:   "rev",
		Short: "Show the current revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepo()
			if err != nil {
				return err
			}
			defer closeJournal(store)

			rev, err := r.CurrentCommit()
			if err != nil {
				return fmt.Errorf("resolving revision: %w", err)
			}

			fmt.Println(rev)
			return nil
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Watch the working tree and print status on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepo()
			if err != nil {
				return err
			}
			defer closeJournal(store)

			w, err := watch.New(r, logger)
			if err != nil {
				return fmt.Errorf("creating watcher: %w", err)
			}
			defer w.Close()

			if err := w.Start(); err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}

			fmt.Println("Watching", r.Root())
			for entries := range w.Events() {
				if len(entries) == 0 {
					fmt.Println("Working tree clean")
					continue
				}
				printStatus(entries)
			}
			return nil
		},
	}

	var journalLimit int
	var journalCmd = &cobra.Command{
		Use:   "journal",
		Short: "Show the audit journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openRepo()
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("journal is disabled")
			}
			defer closeJournal(store)

			entries, err := store.List(journalLimit)
			if err != nil {
				return fmt.Errorf("listing journal: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println("Journal is empty")
				return nil
			}

			for _, e := range entries {
				rev := e.Revision
				if len(rev) > 8 {
					rev = rev[:8]
				}
				fmt.Printf("%s  %-11s  %-8s  %s\n",
					e.Time.Format("2006-01-02 15:04:05"),
					e.Op,
					rev,
					strings.Join(e.Paths, ", "),
				)
			}
			return nil
		},
	}
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", 0, "max entries to show")

	rootCmd.AddCommand(initCmd, writeCmd, rmCmd, mvCmd, logCmd, showCmd, catCmd,
		lsCmd, statusCmd, branchCmd, revCmd, watchCmd, journalCmd)
}

func printStatus(entries []repo.StatusEntry) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()

	for _, e := range entries {
		name := e.File
		if e.Renamed() {
			name = e.RenamedFrom + " -> " + e.File
		}

		switch {
		case e.IndexState == "?" && e.WorktreeState == "?":
			fmt.Printf("  %s %s\n", yellow("??"), name)
		case e.IndexState == "D" || e.WorktreeState == "D":
			fmt.Printf("  %s%s %s\n", red(pad(e.IndexState)), red(pad(e.WorktreeState)), name)
		case e.IndexState != "":
			fmt.Printf("  %s%s %s\n", green(pad(e.IndexState)), pad(e.WorktreeState), name)
		default:
			fmt.Printf("  %s%s %s\n", pad(e.IndexState), blue(pad(e.WorktreeState)), name)
		}
	}
}

func pad(code string) string {
	if code == "" {
		return " "
	}
	return code
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
