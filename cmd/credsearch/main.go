package main

import "credsearch/internal/cli"

func main() {
	cli.Execute()
}
