package main

import "freight-dispatch/internal/cli"

func main() {
	cli.Execute()
}
