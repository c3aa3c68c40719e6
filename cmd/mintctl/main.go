package main

import "github.com/meur/mintforge/internal/cli"

func main() {
	cli.Execute()
}
