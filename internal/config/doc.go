// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the deepscan store CLI.
//
// Configuration is read from ~/.deepscan/config.toml when present, with
// built-in defaults and a DEEPSCAN_DATA_DIR environment override for the
// data directory.
package config
