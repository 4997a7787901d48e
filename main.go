package main

import "github.com/darmiel/toki/cmd"

func main() {
	cmd.Execute()
}
