/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package main

import (
	"github.com/josephgoksu/StoryWing/cmd"
	"github.com/josephgoksu/StoryWing/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}
