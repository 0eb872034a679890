package theme

import (
	"fmt"
	"io"
	"os"
)

const (
	cyan    = "\033[36m"
	magenta = "\033[35m"
	yellow  = "\033[33m"
	reset   = "\033[0m"
)

// Banner returns the CLI banner, colored unless plain is set.
func Banner(plain bool) string {
	c := func(code, s string) string {
		if plain {
			return s
		}
		return code + s + reset
	}
	return "" +
		"  ✦ " + c(magenta, "@EVERYONE WRAPPED") + " ✦\n" +
		c(cyan, "   ╔═╗╔╦╗  ╔═╗╦  ╦╔═╗╦═╗╦ ╦╔═╗╔╗╔╔═╗\n") +
		c(cyan, "   ╠═╣ ║───║╣ ╚╗╔╝║╣ ╠╦╝╚╦╝║ ║║║║║╣\n") +
		c(cyan, "   ╩ ╩ ╩   ╚═╝ ╚╝ ╚═╝╩╚═ ╩ ╚═╝╝╚╝╚═╝\n") +
		c(yellow, "   ─────────────────────────────────\n") +
		"   your group chat, recapped ✦\n"
}

// PrintBanner writes the banner to w. NO_COLOR disables colors.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, Banner(os.Getenv("NO_COLOR") != ""))
}
