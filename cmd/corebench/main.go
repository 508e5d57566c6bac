package main

import "github.com/mohammadamin382/Benchmarks/cmd/corebench/commands"

func main() {
	commands.Execute()
}
