package main

import "github.com/eventsignup/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
