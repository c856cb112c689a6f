package main

import "github.com/example/commute-matching/internal/command"

func main() {
	command.Execute()
}
