package main

import "github.com/frahmantamala/filehub/cmd"

func main() {
	cmd.Execute()
}
