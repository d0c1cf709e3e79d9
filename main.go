package main

import "github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/cmd"

func main() {
	cmd.Execute()
}
