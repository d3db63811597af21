package main

import "github.com/eventpro/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
