package services

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

var separator = strings.Repeat("═", 54)

func printBanner(title string) {
	fmt.Printf("\n\033[1;35m%s\033[0m\n", separator)
	fmt.Printf("\033[1;35m  %s\033[0m\n", title)
	fmt.Printf("\033[1;35m%s\033[0m\n\n", separator)
}

func printFooter() {
	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", separator)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
