package main

import "challan-backend/cmd/challan-cli/cmd"

func main() {
	cmd.Execute()
}
