package main

import "github.com/itsinfi/prompt-with-friends-backend/internal/cli"

func main() {
	cli.Execute()
}
