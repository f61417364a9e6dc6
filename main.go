// SPDX-License-Identifier: MPL-2.0

package main

import cmd "flatpak-bundler/cmd/flatpak-bundler"

func main() {
	cmd.Execute()
}
