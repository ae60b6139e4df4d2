package cmd

import (
	"fmt"
	"io"
)

const banner = `
  ____                _                  _    
 |  _ \ __ _  ___ ___| |_ _ __ __ _  ___| | __
 | |_) / _` + "`" + ` |/ __/ _ \ __| '__/ _` + "`" + ` |/ __| |/ /
 |  _ < (_| | (_|  __/ |_| | | (_| | (__|   < 
 |_| \_\__,_|\___\___|\__|_|  \__,_|\___|_|\_\
                                              
`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  Escape the Machine leaderboard - Version %s\x1b[0m\n\n", Version)
}
