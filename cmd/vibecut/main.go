package main

import "github.com/vibecut/api/internal/cli"

func main() {
	cli.Main()
}
