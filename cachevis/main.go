package main

import "github.com/sarchlab/cachevis/cachevis/cmd"

func main() {
	cmd.Execute()
}
