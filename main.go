package main

import "github.com/cactusfleur/afrispiration/cmd"

func main() {
	cmd.Execute()
}
