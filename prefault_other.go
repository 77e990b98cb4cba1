//go:build !linux

package streambloom

func prefaultRegion(data []byte) {}
