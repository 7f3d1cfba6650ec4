package main

import "github.com/pfrederiksen/cornwall-collections/internal/cli"

func main() {
	cli.Execute()
}
