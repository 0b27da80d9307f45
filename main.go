package main

import "fluxcoach/cmd/fluxcoach"

func main() {
	fluxcoach.Execute()
}
