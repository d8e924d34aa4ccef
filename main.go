package main

import "media-assist/cmd"

func main() {
	cmd.Execute()
}
