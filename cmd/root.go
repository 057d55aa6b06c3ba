// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cmd implements the deepscan-store command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepscan/deepscan-store/internal/chatstore"
	"github.com/deepscan/deepscan-store/internal/config"
	"github.com/deepscan/deepscan-store/internal/export"
	"github.com/deepscan/deepscan-store/internal/knowledge"
	"github.com/deepscan/deepscan-store/internal/kvstore"
	"github.com/deepscan/deepscan-store/internal/msgstore"
)

var scopeFlag string

var rootCmd = &cobra.Command{
	Use:   "deepscan-store",
	Short: "Local-first chat and knowledge store for deepscan",
	Long: `deepscan-store manages the local persistence layer of the deepscan chat
client: scope-partitioned chat metadata, per-chat message shards, portable
export/import snapshots, and the knowledge document collection.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&scopeFlag, "scope", chatstore.GuestScope,
		"owning scope (user id, or \"guest\")")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// stores bundles everything a command needs over one open database.
type stores struct {
	cfg    *config.Config
	kv     *kvstore.Store
	chats  *chatstore.Store
	shards *msgstore.Store
	engine *export.Engine
	docs   *knowledge.Store
}

func (s *stores) Close() error {
	return s.kv.Close()
}

// openStores loads configuration and wires the store stack.
func openStores() (*stores, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	kv, err := kvstore.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	shards := msgstore.New(kv)
	chats := chatstore.New(kv)
	chats.AttachShards(shards)

	return &stores{
		cfg:    cfg,
		kv:     kv,
		chats:  chats,
		shards: shards,
		engine: export.NewEngine(chats, shards),
		docs:   knowledge.New(kv),
	}, nil
}
