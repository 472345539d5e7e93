// Scaffold builds directory trees from blueprint files and writes blueprints
// back out from existing trees.
package main

import "github.com/albertocavalcante/scaffold/cmd/scaffold/internal/cli"

func main() {
	cli.Execute()
}
