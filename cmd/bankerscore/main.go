package main

import "github.com/mcoot/bankerscore/internal/cli"

func main() {
	cli.Execute()
}
