package main

import "github.com/identityops/idassign/cmd"

func main() {
	cmd.Execute()
}
