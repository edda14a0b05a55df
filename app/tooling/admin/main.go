// This program provides administration against a running node.
package main

import "github.com/meridianchain/meridian/app/tooling/admin/cmd"

func main() {
	cmd.Execute()
}
