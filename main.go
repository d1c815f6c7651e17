package main

import "github.com/fmvoice/synthcore/cmd"

func main() {
	cmd.Execute()
}
