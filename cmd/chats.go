// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepscan/deepscan-store/internal/chatstore"
	"github.com/deepscan/deepscan-store/internal/util"
)

func init() {
	createCmd.Flags().StringVar(&createModel, "model", "", "model identifier (default from config)")
	rootCmd.AddCommand(listCmd, createCmd, renameCmd, pinCmd, unpinCmd, tagCmd, deleteCmd, searchCmd)
}

var createModel string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List chats in the scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		printRecords(st.chats.ListChats(scopeFlag))
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		model := createModel
		if model == "" {
			model = st.cfg.DefaultModel
		}
		record, err := st.chats.CreateChat(scopeFlag, chatstore.NewChat{
			Title: args[0],
			Model: model,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created chat %d (%s)\n", record.ID, record.Title)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <chat-id> <title>",
	Short: "Rename a chat",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		id, ok := util.ParseInt64(args[0])
		if !ok {
			return fmt.Errorf("invalid chat id %q", args[0])
		}
		record, err := st.chats.UpdateChat(scopeFlag, id, chatstore.Patch{Title: &args[1]})
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("chat %d not found (or empty title)", id)
		}
		fmt.Printf("Renamed chat %d to %q\n", record.ID, record.Title)
		return nil
	},
}

var pinCmd = &cobra.Command{
	Use:   "pin <chat-id>...",
	Short: "Pin chats to the top of the list",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setPinned(args, true) },
}

var unpinCmd = &cobra.Command{
	Use:   "unpin <chat-id>...",
	Short: "Unpin chats",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setPinned(args, false) },
}

var tagCmd = &cobra.Command{
	Use:   "tag <chat-id> <tag-id>",
	Short: "Tag a chat (empty tag-id clears the tag)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		id, ok := util.ParseInt64(args[0])
		if !ok {
			return fmt.Errorf("invalid chat id %q", args[0])
		}
		record, err := st.chats.UpdateChat(scopeFlag, id, chatstore.Patch{TagID: &args[1]})
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("chat %d not found", id)
		}
		if record.TagID == "" {
			fmt.Printf("Chat %d untagged\n", record.ID)
		} else {
			fmt.Printf("Chat %d tagged %s\n", record.ID, record.TagID)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <chat-id>...",
	Short: "Delete chats and their messages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		removed, err := st.chats.DeleteChats(scopeFlag, ids)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d chat(s)\n", removed)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search chats by title and message content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		printRecords(st.chats.SearchChats(scopeFlag, args[0]))
		return nil
	},
}

func setPinned(args []string, pinned bool) error {
	st, err := openStores()
	if err != nil {
		return err
	}
	defer st.Close()

	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	updated, err := st.chats.SetPinned(scopeFlag, ids, pinned)
	if err != nil {
		return err
	}
	verb := "Pinned"
	if !pinned {
		verb = "Unpinned"
	}
	fmt.Printf("%s %d chat(s)\n", verb, updated)
	return nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, ok := util.ParseInt64(arg)
		if !ok {
			return nil, fmt.Errorf("invalid chat id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printRecords(records []chatstore.ChatRecord) {
	if len(records) == 0 {
		fmt.Println("No chats found.")
		return
	}
	fmt.Printf("%-6s %-4s %-8s %-12s %-17s %s\n", "ID", "PIN", "TAG", "MODEL", "UPDATED", "TITLE")
	for _, record := range records {
		pin := ""
		if record.Pinned {
			pin = "*"
		}
		fmt.Printf("%-6d %-4s %-8s %-12s %-17s %s\n",
			record.ID,
			pin,
			record.TagID,
			record.Model,
			time.UnixMilli(record.UpdatedAt).Local().Format("2006-01-02 15:04"),
			util.TruncateRunes(record.Title, 60),
		)
	}
}
