package main

import "github.com/treegar/admin-console/cmd"

func main() {
	cmd.Execute()
}
