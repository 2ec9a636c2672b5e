package main

import (
	"github.com/foomo/discstorage/cmd"
)

func main() {
	cmd.Execute()
}
