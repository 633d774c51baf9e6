package main

import (
	"github.com/dskm-project/dskm/cmd"
)

func main() {
	cmd.Execute()
}
