package main

import "locmerge/internal/cli"

func main() {
	cli.Execute()
}
