// Package main provides the poaexcel command for converting POA budget
// workbooks to JSON and back.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
