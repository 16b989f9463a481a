package main

import "pettycash/internal/cli"

func main() {
	cli.Execute()
}
