package main

import "github.com/MeKo-Tech/peek/cmd/peek/cmd"

func main() {
	cmd.Execute()
}
