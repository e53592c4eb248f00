package main

import "github.com/5hixia0jie/SYNAPSEAUTOMATION/client/collect-cli/cmd"

func main() {
	cmd.Execute()
}
