package main

import "github.com/classpulse/embedapi/cmd"

func main() {
	cmd.Execute()
}
