package main

import "restaurant-manager/cli"

func main() {
	cli.Execute()
}
