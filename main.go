package main

import (
	"github.com/kernelstub/bindiff/cmd"
)

func main() {
	cmd.Execute()
}
