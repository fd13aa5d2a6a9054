package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/dougsko/rxcore/pkg/client"
)

var (
	socketPath = flag.StringP("socket", "s", "/tmp/rxcore.sock", "Unix socket path")
	command    = flag.StringP("cmd", "c", "", "Command to send (e.g., 'STATUS', 'SET:frequency:14550000')")
)

func main() {
	flag.Usage = showHelp
	flag.Parse()

	if *socketPath == "" {
		fmt.Fprintf(os.Stderr, "Socket path is required\n")
		os.Exit(1)
	}

	if *command == "" {
		if flag.NArg() == 0 {
			showHelp()
			return
		}
		*command = strings.Join(flag.Args(), ":")
	}

	c := client.NewSocketClient(*socketPath)
	response, err := c.SendCommand(*command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", response.String())
	if !response.Success {
		os.Exit(2)
	}
}

func showHelp() {
	fmt.Println("rxctl - radio core control tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options] <command> [args...]\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  STATUS                         Radio summary")
	fmt.Println("  VFOS                           List VFO slots")
	fmt.Println("  VFO:<index>|next               Switch the active VFO")
	fmt.Println("  SET:<param>:<value>            Set a parameter of the active VFO")
	fmt.Println("  ADJ:<param>:<delta>            Adjust a parameter with wraparound")
	fmt.Println("  MODE                           Toggle frequency/channel mode")
	fmt.Println("  CHANNEL:<n>                    Load a stored channel")
	fmt.Println("  TX:on|off|toggle               Key or unkey the transmitter")
	fmt.Println("  SCAN:start|analyser|channels|stop|next|prev")
	fmt.Println("  SCAN:range:<start>:<end>       Narrow the sweep")
	fmt.Println("  SCAN:lists:<mask>              Select scanlists")
	fmt.Println("  SCAN:step:<index>              Change the sweep step")
	fmt.Println("  CPS                            Scanner cycles per second")
	fmt.Println("  KEY:<key>[:<state>]            Inject a key event")
	fmt.Println("  MULTIWATCH|ROUTING|MONITOR:on|off|toggle")
	fmt.Println("  BAND:<name>|next               Move the active VFO to another band")
	fmt.Println("  LOOT[:<limit>]                 Recently heard signals")
	fmt.Println("  PING                           Test connection")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s SET frequency 14550000\n", os.Args[0])
	fmt.Printf("  %s SCAN:range:14400000:14600000\n", os.Args[0])
	fmt.Printf("  echo 'STATUS' | nc -U /tmp/rxcore.sock\n")
}
