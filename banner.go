package harbor

import (
	"bufio"
	"fmt"
	"os"
)

const logo = `
 _            _   _               _
| |_ ___  ___| |_| |__   __ _ _ __| |__   ___  _ __
| __/ _ \/ __| __| '_ \ / _` + "`" + ` | '__| '_ \ / _ \| '__|
| ||  __/\__ \ |_| | | | (_| | |  | |_) | (_) | |
 \__\___||___/\__|_| |_|\__,_|_|  |_.__/ \___/|_|
`

func printBanner(version string) {
	fmt.Print(logo + "\n")
	fmt.Printf("testharbor %s\n\n", version)
}

// waitForKeyPress blocks until the user presses enter. Skipped when stdin
// is not a terminal, so CI pipelines never hang on --wait.
func waitForKeyPress() {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return
	}
	fmt.Print("Press enter to continue...")
	_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')
	fmt.Println()
}
