package main

import "github.com/jmcleod/racetrack/cmd/racetrack/cmd"

func main() {
	cmd.Execute()
}
