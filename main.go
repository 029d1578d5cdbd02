package main

import "github.com/vs74/pagetree/cli"

func main() {
	cli.Execute()
}
