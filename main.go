package main

import "github.com/takasehideki/firefly/cmd"

func main() {
	cmd.Execute()
}
