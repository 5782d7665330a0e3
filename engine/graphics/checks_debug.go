//go:build debug

package graphics

const debugChecks = true
