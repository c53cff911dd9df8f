package main

import "story-backend/cmd"

func main() {
	cmd.Run()
}
