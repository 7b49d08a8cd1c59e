package main

import "github.com/davrell/chemviz/cmd"

func main() {
	cmd.Execute()
}
