package main

import "caketime/cmd"

func main() {
	cmd.Execute()
}
