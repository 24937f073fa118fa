package main

import "github.com/theirongolddev/tally/cmd"

func main() {
	cmd.Execute()
}
