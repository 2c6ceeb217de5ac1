package main

import "mapshare/cmd"

func main() {
	cmd.Execute()
}
