// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/extlib/extlib/cmd/extlib"

func main() {
	cmd.Execute()
}
