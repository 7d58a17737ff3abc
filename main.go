package main

import "github.com/docdyhr/httpcheck/cmd"

func main() {
	cmd.Execute()
}
