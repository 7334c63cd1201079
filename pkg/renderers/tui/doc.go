// Package tui fills registry instances interactively from a terminal.
package tui
