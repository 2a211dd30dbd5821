package main

import "github.com/pfrederiksen/xc-results/internal/cli"

func main() {
	cli.Execute()
}
