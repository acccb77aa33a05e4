package main

import "github.com/Gani505-dotcom/Smart-Attendance-Verification-System/cmd"

func main() {
	cmd.Execute()
}
