// Command forge is Forge's command-line interpreter, grounded on
// funvibe-funxy/cmd/funxy/main.go's thin main()-delegates-to-pkg/cli shape.
package main

import (
	"os"

	"github.com/forgelang/forge/pkg/cli"
)

func main() {
	os.Exit(cli.Main())
}
