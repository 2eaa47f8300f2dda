// Command reap is a project-scope dead-code analyzer for an
// indentation-sensitive scripting language.
package main

import (
	"os"

	"github.com/reap-dev/reap/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
