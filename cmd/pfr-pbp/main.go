package main

import "github.com/pfrederiksen/pfr-pbp/internal/cli"

func main() {
	cli.Execute()
}
