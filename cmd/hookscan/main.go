package main

import "github.com/forPelevin/hookscan/internal/cli"

func main() {
	cli.Main()
}
