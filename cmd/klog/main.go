// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

package main

import "klog/cmd/cli"

func main() {
	cli.RunCLI()
}
