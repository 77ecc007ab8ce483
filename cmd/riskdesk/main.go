package main

import "github.com/rustyeddy/riskdesk/internal/cli"

func main() {
	cli.Execute()
}
