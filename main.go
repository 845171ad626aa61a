package main

import "travel-planner-backend/cmd"

func main() {
	cmd.Execute()
}
