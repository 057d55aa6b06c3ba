// deepscan-store - local-first persistence for the deepscan chat client.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import "github.com/deepscan/deepscan-store/cmd"

func main() {
	cmd.Execute()
}
