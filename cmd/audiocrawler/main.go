// The main package for the audiocrawler executable.
package main

import "github.com/lvmai1801it-dev/Full-WEB-Audio/cmd"

func main() {
	cmd.Execute()
}
