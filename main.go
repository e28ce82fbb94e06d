package main

import "github.com/anisomesh/adapt/cmd"

func main() {
	cmd.Execute()
}
