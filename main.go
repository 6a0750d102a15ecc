package main

import "github.com/dotcommander/assesskit/cmd"

func main() {
	cmd.Execute()
}
