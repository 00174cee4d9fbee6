package main

import "grove/cmd"

func main() {
	cmd.Execute()
}
