package main

import "evmwallet/cmd"

// Version should be set during build
var Version = "dev"

func main() {
	cmd.Execute(Version)
}
