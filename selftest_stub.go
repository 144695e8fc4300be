//go:build !linux

package main

import "fmt"

func runSelftest(dir, facility, mqPath string) error {
	return fmt.Errorf("selftest requires linux")
}
