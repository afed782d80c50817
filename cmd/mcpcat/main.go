package main

import "github.com/mcpcat/mcpcat-go/internal/cli"

func main() {
	cli.Execute()
}
