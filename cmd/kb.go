// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepscan/deepscan-store/internal/knowledge"
	"github.com/deepscan/deepscan-store/internal/util"
)

var kbSearchLimit int

func init() {
	kbSearchCmd.Flags().IntVarP(&kbSearchLimit, "limit", "n", 10, "maximum results")
	kbCmd.AddCommand(kbAddCmd, kbListCmd, kbSearchCmd, kbRmCmd, kbWatchCmd)
	rootCmd.AddCommand(kbCmd)
}

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the knowledge document collection",
}

var kbAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Import files as knowledge documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		docs, err := st.docs.DocumentsFromFiles(args)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("No importable content found.")
			return nil
		}
		if _, err := st.docs.UpsertMany(docs); err != nil {
			return err
		}
		for _, doc := range docs {
			fmt.Printf("Imported %s (%s, %s)\n", doc.Name, doc.Language, doc.ID)
		}
		return nil
	},
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		docs := st.docs.LoadAll()
		if len(docs) == 0 {
			fmt.Println("No documents stored.")
			return nil
		}
		fmt.Printf("%-38s %-12s %-17s %s\n", "ID", "LANGUAGE", "CREATED", "NAME")
		for _, doc := range docs {
			fmt.Printf("%-38s %-12s %-17s %s\n",
				doc.ID,
				doc.Language,
				time.UnixMilli(doc.CreatedAt).Local().Format("2006-01-02 15:04"),
				util.TruncateRunes(doc.Name, 50),
			)
		}
		return nil
	},
}

var kbSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search knowledge documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		results := knowledge.Search(st.docs.LoadAll(), args[0], kbSearchLimit)
		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, result := range results {
			fmt.Printf("%s  (score %.2f)\n  %s\n", result.Name, result.Score, result.Snippet)
		}
		return nil
	},
}

var kbRmCmd = &cobra.Command{
	Use:   "rm <document-id>",
	Short: "Remove a knowledge document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.docs.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var kbWatchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and auto-import dropped files",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		dir := st.cfg.Knowledge.InboxDir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return fmt.Errorf("no inbox directory: pass one or set knowledge.inbox_dir")
		}

		debounce := time.Duration(st.cfg.Knowledge.WatchDebounceMs) * time.Millisecond
		watcher, err := knowledge.NewInboxWatcher(st.docs, dir, debounce)
		if err != nil {
			return err
		}
		defer watcher.Close()

		watcher.OnImport = func(docs []knowledge.Document) {
			for _, doc := range docs {
				fmt.Printf("Imported %s (%s)\n", doc.Name, doc.Language)
			}
		}
		if err := watcher.Watch(); err != nil {
			return err
		}
		fmt.Printf("Watching %s (Ctrl+C to stop)\n", dir)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		return nil
	},
}
