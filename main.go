package main

import "github.com/yonatan1811/ccheck/cmd"

func main() {
	cmd.Execute()
}
