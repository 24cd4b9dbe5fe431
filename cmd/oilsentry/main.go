package main

import (
	"oil-sentiment/internal/cli"
)

func main() {
	cli.Execute()
}
