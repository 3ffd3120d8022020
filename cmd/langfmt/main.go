package main

import "langfmt/internal/cli"

func main() {
	cli.Execute()
}
