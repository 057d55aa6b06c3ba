// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepscan/deepscan-store/internal/export"
	"github.com/deepscan/deepscan-store/internal/util"
)

var (
	exportOutput string
	importMode   string
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default <output-dir>/deepscan-export-<date>.json)")
	importCmd.Flags().StringVar(&importMode, "mode", string(export.ModeMerge), "import mode: merge or replace")
	markdownCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd, importCmd, markdownCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the scope's chats and messages to a JSON snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		payload := st.engine.ExportChats(scopeFlag)

		path := exportOutput
		if path == "" {
			name := fmt.Sprintf("deepscan-export-%s.json", time.Now().Format("2006-01-02"))
			path = filepath.Join(st.cfg.Export.OutputDir, name)
		}
		if err := export.WriteFile(path, payload); err != nil {
			return err
		}
		fmt.Printf("Exported %d chat(s) to %s\n", len(payload.Chats), path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON snapshot into the scope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		payload, err := export.ParsePayload(raw)
		if err != nil {
			return err
		}

		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		result, err := st.engine.ImportChats(scopeFlag, payload, export.Mode(importMode))
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d chat(s); scope now holds %d\n", result.Imported, result.Total)
		return nil
	},
}

var markdownCmd = &cobra.Command{
	Use:   "markdown <chat-id>",
	Short: "Render one chat as a Markdown document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, ok := util.ParseInt64(args[0])
		if !ok {
			return fmt.Errorf("invalid chat id %q", args[0])
		}

		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.Close()

		for _, record := range st.chats.ListChats(scopeFlag) {
			if record.ID != id {
				continue
			}
			doc := export.RenderMarkdown(record, st.shards.ReadMessages(id))
			if exportOutput == "" {
				fmt.Print(string(doc))
				return nil
			}
			if err := util.AtomicWriteFile(exportOutput, doc, 0644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", exportOutput)
			return nil
		}
		return fmt.Errorf("chat %d not found", id)
	},
}
