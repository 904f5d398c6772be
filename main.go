package main

import "github.com/kamilpajak/reliability/cmd/reliability"

func main() {
	reliability.Execute()
}
